package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/config"
)

type HealthHandler struct {
	settings *config.Settings
}

func NewHealthHandler(settings *config.Settings) *HealthHandler {
	return &HealthHandler{settings: settings}
}

func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":            "ok",
		"stt_provider":      h.settings.STTProvider,
		"stt_chunk_seconds": h.settings.STTChunkSeconds,
	}
	if h.settings.STTProvider == "openai" {
		resp["openai_stt_model"] = h.settings.OpenAISTTModel
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
