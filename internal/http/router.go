package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	activityhandler "stockroom/internal/activity/handler"
	assethandler "stockroom/internal/asset/handler"
	borrowinghandler "stockroom/internal/borrowing/handler"
	issuehandler "stockroom/internal/issue/handler"
	mailerhandler "stockroom/internal/mailer/handler"
	"stockroom/internal/platform/metrics"
	"stockroom/internal/platform/middleware"
	repairhandler "stockroom/internal/repair/handler"
	shipmenthandler "stockroom/internal/shipment/handler"
	"stockroom/pkg/platform/httputil"
)

// Dependencies collects everything the router needs. Optional fields (metrics,
// health checkers) may be nil.
type Dependencies struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	JWTValidator   middleware.JWTValidator
	RequestTimeout time.Duration

	Assets    *assethandler.Handler
	Issues    *issuehandler.Handler
	Repairs   *repairhandler.Handler
	Shipments *shipmenthandler.Handler
	Borrowing *borrowinghandler.Handler
	Activity  *activityhandler.Handler
	Mailer    *mailerhandler.Handler

	HealthCheckers map[string]func() error
}

// NewRouter assembles the API. Reads are open; every mutation requires a
// bearer token so the audit trail always has an actor.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", healthHandler(deps.HealthCheckers))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)

		api.Get("/assets", deps.Assets.List)
		api.Get("/assets/{assetID}", deps.Assets.Get)
		api.Get("/assets/{assetID}/activity", deps.Activity.ListByAsset)
		api.Get("/asset-issues", deps.Issues.List)
		api.Get("/asset-issues/{issueID}", deps.Issues.Get)
		api.Get("/repairs", deps.Repairs.List)
		api.Get("/repairs/{repairID}", deps.Repairs.Get)
		api.Get("/maintenance", deps.Repairs.ListMaintenance)
		api.Get("/incoming-shipments", deps.Shipments.ListIncoming)
		api.Get("/outgoing-assets", deps.Shipments.ListOutgoing)
		api.Get("/borrowing-requests", deps.Borrowing.List)
		api.Get("/borrowing-requests/{requestID}", deps.Borrowing.Get)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))

			authed.Post("/assets", deps.Assets.Create)
			authed.Put("/assets/{assetID}", deps.Assets.Update)
			authed.Delete("/assets/{assetID}", deps.Assets.Deactivate)

			authed.Post("/asset-issues", deps.Issues.Report)
			authed.Delete("/asset-issues/{issueID}", deps.Issues.Delete)

			authed.Post("/repairs", deps.Repairs.Create)
			authed.Post("/repairs/{repairID}/complete", deps.Repairs.Complete)
			authed.Delete("/repairs/{repairID}", deps.Repairs.Delete)
			authed.Post("/maintenance", deps.Repairs.CreateMaintenance)
			authed.Delete("/maintenance/{maintenanceID}", deps.Repairs.DeleteMaintenance)

			authed.Post("/incoming-shipments", deps.Shipments.RecordIncoming)
			authed.Post("/outgoing-assets", deps.Shipments.RecordOutgoing)

			authed.Post("/borrowing-requests", deps.Borrowing.Borrow)
			authed.Post("/borrowing-requests/{requestID}/return", deps.Borrowing.Return)

			authed.Post("/send-email", deps.Mailer.Send)
		})
	})

	return r
}

func healthHandler(checkers map[string]func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		components := make(map[string]string, len(checkers))
		for name, check := range checkers {
			if err := check(); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				components[name] = "ok"
			}
		}
		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httputil.WriteJSON(w, status, body)
	}
}
