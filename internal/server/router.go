package server

import "net/http"

// Routes wires the tile handler and optional extras into a mux:
// /tiles/ for tiles, /healthz, and whatever is passed in extra
// (for example /status or /metadata).
func Routes(tiles http.Handler, extra map[string]http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/tiles/", WithCORS(tiles))
	for pattern, h := range extra {
		mux.Handle(pattern, WithCORS(h))
	}
	return mux
}

// WithCORS lets browser viewers on other origins fetch tiles.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
