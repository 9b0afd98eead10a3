package httpserver

import "net/http"

// RegisterStaticRoutes mounts the browser client:
// - /web/* -> static assets from dir
// - /      -> redirect to /web/
func RegisterStaticRoutes(mux *http.ServeMux, dir string) {
	if mux == nil {
		return
	}
	if dir == "" {
		dir = "."
	}

	mux.Handle("/web/", http.StripPrefix("/web/", http.FileServer(http.Dir(dir))))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/web":
			http.Redirect(w, r, "/web/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	})
}
