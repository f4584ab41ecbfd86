package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/api/handlers"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/api/middleware"
)

type Deps struct {
	Stream       *handlers.StreamHandler
	Suggestions  *handlers.SuggestionHandler
	Projects     *handlers.ProjectHandler
	ContextFiles *handlers.ContextFileHandler
	Transcripts  *handlers.TranscriptHandler
	Sessions     *handlers.SessionHandler // nil when mongo is disabled
	Health       *handlers.HealthHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", d.Health.Health)
	r.GET("/ready", d.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.ProjectToken())

	// The audio stream binds to a project through its config messages,
	// not through a token.
	api.GET("/audio/stream", d.Stream.Stream)

	api.POST("/suggestions/generate", d.Suggestions.Generate)
	api.POST("/projects", d.Projects.Create)

	scoped := api.Group("")
	scoped.Use(middleware.RequireProjectToken())

	scoped.GET("/projects", d.Projects.List)
	scoped.GET("/projects/:project_id", d.Projects.Get)
	scoped.PATCH("/projects/:project_id", d.Projects.Update)
	scoped.POST("/projects/:project_id/context/files", d.ContextFiles.Import)
	scoped.GET("/projects/:project_id/transcripts", d.Transcripts.List)
	scoped.GET("/projects/:project_id/suggestions", d.Suggestions.ListByProject)

	if d.Sessions != nil {
		api.GET("/sessions/:session_id", d.Sessions.Get)
		api.GET("/sessions/:session_id/utterances", d.Sessions.Utterances)
		scoped.GET("/projects/:project_id/sessions", d.Sessions.ListByProject)
	}
}
