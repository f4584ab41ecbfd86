package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
)

// SessionHandler serves the call-history endpoints. Session ids are
// unguessable uuids minted server-side, so reads are not token-gated;
// the per-project listing is, through the owning project.
type SessionHandler struct {
	records  services.SessionRecordService
	projects services.ProjectService
}

func NewSessionHandler(records services.SessionRecordService, projects services.ProjectService) *SessionHandler {
	return &SessionHandler{records: records, projects: projects}
}

func (h *SessionHandler) Get(c *gin.Context) {
	s, err := h.records.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SessionHandler) Utterances(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "200"), 10, 64)

	rows, err := h.records.Utterances(c.Request.Context(), c.Param("session_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *SessionHandler) ListByProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("project_id"), projectToken(c))
	if err != nil {
		writeError(c, err)
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	rows, err := h.records.ListByProject(c.Request.Context(), p.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
