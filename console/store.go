package console

import (
	"io"

	"github.com/jrsteele09/retail-console/internal/config"
	"github.com/jrsteele09/retail-console/storage"
	"github.com/jrsteele09/retail-console/storage/boltstore"
	"github.com/jrsteele09/retail-console/storage/memstore"
	"github.com/jrsteele09/retail-console/storage/redisstore"
	"github.com/pkg/errors"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore opens the durable store selected by the STORAGE setting
func OpenStore(cfg config.StorageConfig) (storage.Store, io.Closer, error) {
	switch cfg.GetStorageBackend() {
	case config.StorageMemory:
		return memstore.New(), nopCloser{}, nil
	case config.StorageBolt:
		bs, err := boltstore.Open(cfg.GetStorageFile())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[OpenStore] bolt")
		}
		return bs, bs, nil
	case config.StorageRedis:
		rs, err := redisstore.Dial(cfg.GetRedisAddr(), cfg.GetRedisPrefix())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[OpenStore] redis")
		}
		return rs, rs, nil
	}
	return nil, nil, errors.Errorf("[OpenStore] unknown storage backend %q", cfg.GetStorageBackend())
}
