package devserver

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
)

type middleware func(http.HandlerFunc) http.HandlerFunc

// chain wraps h so that the first middleware listed runs first
func chain(h http.HandlerFunc, mws ...middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (s *Server) apiMiddleware() []middleware {
	return []middleware{
		s.requestLog,
		recoverPanic,
		noStore,
	}
}

// statusRecorder captures the status code a handler writes
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)

		evt := log.Debug()
		if s.env == "DEV" {
			evt = log.Info()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("tenant", r.Header.Get(tenantHeader)).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("devserver: request")
	}
}

func recoverPanic(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Bytes("stack", debug.Stack()).Msg("devserver: recovered from panic")
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next(w, r)
	}
}

// noStore keeps tokens and tenant data out of intermediary caches
func noStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next(w, r)
	}
}
