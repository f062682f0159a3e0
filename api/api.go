// Package api provides HTTP handlers for the Stint API.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/engine"
)

// API wires all Forge-style HTTP handlers together for the stint runtime.
type API struct {
	eng    *engine.Engine
	router forge.Router
}

// New creates an API from a stint Engine.
func New(eng *engine.Engine, router forge.Router) *API {
	return &API{eng: eng, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	return a.router.Handler()
}

// RegisterRoutes registers all stint API routes into the given Forge router
// with full OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	a.registerJobRoutes(router)
	a.registerHealthRoutes(router)
}

// registerJobRoutes registers job lifecycle routes.
func (a *API) registerJobRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("jobs"))

	_ = g.POST("/jobs/:jobId", a.startJob,
		forge.WithSummary("Start job"),
		forge.WithDescription("Accepts a job for durable execution. Repeat calls for the same job ID are no-ops."),
		forge.WithOperationID("startJob"),
		forge.WithRequestSchema(StartJobRequest{}),
		forge.WithResponseSchema(http.StatusAccepted, "Job accepted", StartJobResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/jobs/:jobId", a.getJobStatus,
		forge.WithSummary("Get job status"),
		forge.WithDescription("Returns the current lifecycle status of a job."),
		forge.WithOperationID("getJobStatus"),
		forge.WithResponseSchema(http.StatusOK, "Job status", &actor.StatusReport{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/jobs/:jobId/log", a.getJobLog,
		forge.WithSummary("Get job log"),
		forge.WithDescription("Returns the stored execution log record of a job."),
		forge.WithOperationID("getJobLog"),
		forge.WithResponseSchema(http.StatusOK, "Job log record", JobLogResponse{}),
		forge.WithErrorResponses(),
	)
}

// registerHealthRoutes registers the health probe.
func (a *API) registerHealthRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("system"))

	_ = g.GET("/health", a.health,
		forge.WithSummary("Health check"),
		forge.WithDescription("Pings the backing store."),
		forge.WithOperationID("health"),
		forge.WithResponseSchema(http.StatusOK, "Health status", HealthResponse{}),
		forge.WithErrorResponses(),
	)
}
