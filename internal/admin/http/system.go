package http

import (
	"net/http"
	"time"

	"github.com/labourhub/adminauth/pkg/httpx"

	"github.com/labourhub/adminauth/internal/admin/store"
)

// LivezHandler reports process liveness.
func LivezHandler(startTime time.Time, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		})
	})
}

// ReadyzHandler reports readiness: the database must answer a ping.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		})
	})
}
