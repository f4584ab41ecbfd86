package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

type ProjectHandler struct {
	svc services.ProjectService
}

func NewProjectHandler(svc services.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateProjectResponse is the one response that exposes the token; the
// model hides it everywhere else.
type CreateProjectResponse struct {
	models.Project
	Token string `json:"token"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProjectHandler.Create", "invalid request body", err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), req.Name, projectToken(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateProjectResponse{Project: *p, Token: p.Token})
}

func (h *ProjectHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), projectToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("project_id"), projectToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	ContextText *string `json:"context_text"`
	LLMModel    *string `json:"llm_model"`
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProjectHandler.Update", "invalid request body", err))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("project_id"), projectToken(c), services.ProjectUpdate{
		Name:        req.Name,
		ContextText: req.ContextText,
		LLMModel:    req.LLMModel,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
