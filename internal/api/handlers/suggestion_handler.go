package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

type SuggestionHandler struct {
	svc      services.SuggestionService
	projects services.ProjectService
}

func NewSuggestionHandler(svc services.SuggestionService, projects services.ProjectService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc, projects: projects}
}

type suggestionMessage struct {
	Role string `json:"role"` // user | other
	Text string `json:"text"`
}

type GenerateSuggestionRequest struct {
	History   []suggestionMessage `json:"history" binding:"required"`
	Context   string              `json:"context"`
	ProjectID string              `json:"project_id"`
}

type GenerateSuggestionResponse struct {
	Reply string `json:"reply"`
}

func (h *SuggestionHandler) Generate(c *gin.Context) {
	const op = "SuggestionHandler.Generate"

	var req GenerateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	history := make([]services.ContextEntry, 0, len(req.History))
	for _, m := range req.History {
		speaker := stream.SpeakerUser
		if m.Role == "other" {
			speaker = stream.SpeakerOther
		}
		history = append(history, services.ContextEntry{Speaker: speaker, Text: m.Text})
	}

	// A valid project reference switches the model; a bad one is just
	// ignored, the suggestion itself must still go out.
	var override string
	if token := projectToken(c); req.ProjectID != "" && token != "" {
		if p, err := h.projects.Get(c.Request.Context(), req.ProjectID, token); err == nil {
			override = p.LLMModel
		}
	}

	reply, err := h.svc.GenerateReply(c.Request.Context(), req.ProjectID, history, req.Context, override)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateSuggestionResponse{Reply: reply})
}

// ListByProject returns the logged suggestion history for an owned project.
func (h *SuggestionHandler) ListByProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("project_id"), projectToken(c))
	if err != nil {
		writeError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.svc.ListExchanges(c.Request.Context(), p.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
