package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RegisterRoutes adds /healthz and a /readyz that runs checks.
func RegisterRoutes(r *mux.Router, checks map[string]Check) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		out := map[string]string{}
		for name, c := range checks {
			if err := c(ctx); err != nil {
				status = http.StatusServiceUnavailable
				out[name] = err.Error()
				continue
			}
			out[name] = "ok"
		}
		writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": out})
	}).Methods(http.MethodGet, http.MethodHead)
}

// RegisterRoutesWithDB is RegisterRoutes with a database ping.
func RegisterRoutesWithDB(r *mux.Router, db *gorm.DB, extra map[string]Check) {
	checks := map[string]Check{"database": DBCheck(db)}
	for k, c := range extra {
		checks[k] = c
	}
	RegisterRoutes(r, checks)
}

func DBCheck(db *gorm.DB) Check {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
