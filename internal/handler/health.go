package handler

import "net/http"

// HandleHealth backs GET /healthz. It never touches the store, so it only
// says the process is serving.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
