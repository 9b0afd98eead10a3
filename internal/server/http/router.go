package httpserver

import "net/http"

// NewMux assembles the full server: the JSON API under /api/, the
// websocket endpoint at /ws and the static client under /web/. ws may be
// nil for API-only servers.
func NewMux(api http.Handler, ws http.Handler, webDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	if ws != nil {
		mux.Handle("/ws", ws)
	}
	RegisterStaticRoutes(mux, webDir)
	return mux
}
