package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obsmw "intercom/internal/observability/middleware"
)

type RouterConfig struct {
	SigningKey []byte
	// VerifyLimiter is optional; nil disables throttling (tests, dev).
	VerifyLimiter *RateLimiter
}

func NewRouter(cfg RouterConfig, h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(obsmw.WithRequestID)
	r.Use(obsmw.WithHTTPMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Device-facing: anonymous by design.
	r.Group(func(r chi.Router) {
		if cfg.VerifyLimiter != nil {
			r.Use(cfg.VerifyLimiter.Middleware)
		}
		r.Post("/v1/verify", h.Verify)
	})

	// Management surface: bearer token required.
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(cfg.SigningKey))

		r.Post("/v1/buildings", h.CreateBuilding)
		r.Post("/v1/buildings/{buildingID}/intercoms", h.CreateIntercom)
		r.Get("/v1/buildings/{buildingID}/intercoms", h.ListIntercoms)

		r.Put("/v1/intercoms/{intercomID}/master-pin", h.SetMasterPin)
		r.Put("/v1/intercoms/{intercomID}/user-pins/{userID}", h.SetUserPin)
		r.Delete("/v1/intercoms/{intercomID}/user-pins/{userID}", h.RevokeUserPin)
		r.Post("/v1/intercoms/{intercomID}/temporary-pins", h.CreateTemporaryPin)
		r.Delete("/v1/temporary-pins/{pinID}", h.RevokeTemporaryPin)

		r.Post("/v1/access-codes", h.CreateAccessCode)
		r.Get("/v1/access-codes", h.ListAccessCodes)
		r.Patch("/v1/access-codes/{codeID}", h.UpdateAccessCode)
		r.Post("/v1/access-codes/{codeID}/deactivate", h.DeactivateAccessCode)
		r.Delete("/v1/access-codes/{codeID}", h.DeleteAccessCode)

		r.Get("/v1/access-logs", h.ListAccessLogs)
	})

	return r
}
