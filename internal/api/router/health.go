package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// Pinger is satisfied by *pgxpool.Pool and by the redis client adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// healthHandler reports each dependency as "ok" or "unavailable". The route is
// public, so error details only go to the log.
func healthHandler(checks map[string]Pinger, logger *logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok"}
		code := http.StatusOK
		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			for name, check := range checks {
				if err := check.Ping(ctx); err != nil {
					logger.Warn("health: dependency check failed", "dependency", name, "error", err)
					resp[name] = "unavailable"
					resp["status"] = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				resp[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
