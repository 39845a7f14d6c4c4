package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/yatube/internal/cache"
)

// cachedResponse is what CachePage stores per URL.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// recorder captures a response while still writing it to the client.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}

// CachePage serves GET responses from store for ttl. Only 200 responses
// are stored, keyed by the full request URI so each page number is cached
// on its own. A cached page is served as is until it expires, even if the
// underlying data changed. The response is the same for every visitor.
//
// Store errors are logged and the request falls through to next.
func CachePage(store cache.Store, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			key := http.MethodGet + " " + r.URL.RequestURI()

			data, ok, err := store.Get(r.Context(), key)
			if err != nil {
				logger.Warn("page cache read failed", slog.String("key", key), slog.String("error", err.Error()))
			}
			if ok {
				var cached cachedResponse
				if err := json.Unmarshal(data, &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(cached.Status)
					if r.Method == http.MethodGet {
						w.Write(cached.Body)
					}
					return
				}
				logger.Warn("page cache entry unreadable", slog.String("key", key))
			}

			w.Header().Set("X-Cache", "MISS")
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK || r.Method != http.MethodGet {
				return
			}
			data, err = json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				logger.Warn("page cache encode failed", slog.String("error", err.Error()))
				return
			}
			if err := store.Set(r.Context(), key, data, ttl); err != nil {
				logger.Warn("page cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
		})
	}
}
