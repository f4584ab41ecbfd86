package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
)

type TranscriptHandler struct {
	svc services.TranscriptService
}

func NewTranscriptHandler(svc services.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{svc: svc}
}

type transcriptItem struct {
	models.TranscriptRecord
	DownloadURL string `json:"download_url,omitempty"`
}

func (h *TranscriptHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.svc.ListByProject(c.Request.Context(), c.Param("project_id"), projectToken(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]transcriptItem, 0, len(rows))
	for _, r := range rows {
		// Link minting is best-effort; a record without one is still
		// useful for listing.
		url, _ := h.svc.DownloadURL(c.Request.Context(), r.StorageKey)
		items = append(items, transcriptItem{TranscriptRecord: r, DownloadURL: url})
	}
	c.JSON(http.StatusOK, items)
}
