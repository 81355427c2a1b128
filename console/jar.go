package console

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/retail-console/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// persistentJar is a cookie jar whose cookies for the API host are mirrored in
// the durable store, so the refresh cookie outlives a single CLI invocation.
type persistentJar struct {
	jar   *cookiejar.Jar
	store storage.Store
	base  *url.URL

	lock    sync.Mutex
	cookies map[string]storedCookie
}

var _ http.CookieJar = (*persistentJar)(nil)

func newPersistentJar(store storage.Store, baseURL string) (*persistentJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[newPersistentJar] base URL")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[newPersistentJar]")
	}
	pj := &persistentJar{jar: jar, store: store, base: base, cookies: make(map[string]storedCookie)}
	pj.load()
	return pj, nil
}

func (pj *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	return pj.jar.Cookies(u)
}

func (pj *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	pj.jar.SetCookies(u, cookies)
	if u.Host != pj.base.Host {
		return
	}

	pj.lock.Lock()
	defer pj.lock.Unlock()
	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(pj.cookies, c.Name)
			continue
		}
		sc := storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		pj.cookies[c.Name] = sc
	}
	pj.persist()
}

// clear forgets every cookie, in memory and on disk
func (pj *persistentJar) clear() {
	pj.lock.Lock()
	defer pj.lock.Unlock()
	expired := make([]*http.Cookie, 0, len(pj.cookies))
	for _, sc := range pj.cookies {
		expired = append(expired, &http.Cookie{Name: sc.Name, Path: sc.Path, MaxAge: -1})
	}
	pj.jar.SetCookies(pj.base, expired)
	pj.cookies = make(map[string]storedCookie)
	if err := pj.store.Remove(storage.KeyCookies); err != nil {
		log.Err(err).Msg("Failed to remove persisted cookies")
	}
}

func (pj *persistentJar) persist() {
	if len(pj.cookies) == 0 {
		if err := pj.store.Remove(storage.KeyCookies); err != nil {
			log.Err(err).Msg("Failed to remove persisted cookies")
		}
		return
	}
	list := make([]storedCookie, 0, len(pj.cookies))
	for _, sc := range pj.cookies {
		list = append(list, sc)
	}
	data, err := json.Marshal(list)
	if err != nil {
		log.Err(err).Msg("Failed to encode cookies")
		return
	}
	if err := pj.store.Set(storage.KeyCookies, string(data)); err != nil {
		log.Err(err).Msg("Failed to persist cookies")
	}
}

func (pj *persistentJar) load() {
	raw, err := pj.store.Get(storage.KeyCookies)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Err(err).Msg("Failed to read persisted cookies")
		}
		return
	}
	var list []storedCookie
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Warn().Err(err).Msg("Ignoring corrupt persisted cookies")
		return
	}

	now := time.Now()
	restored := make([]*http.Cookie, 0, len(list))
	for _, sc := range list {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		pj.cookies[sc.Name] = sc
		restored = append(restored, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: sc.Path, Expires: sc.Expires, HttpOnly: true})
	}
	pj.jar.SetCookies(pj.base, restored)
}
