package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

// maxContextFileBytes bounds uploaded context documents.
const maxContextFileBytes = 10 << 20

type ContextFileHandler struct {
	svc services.ContextFileService
}

func NewContextFileHandler(svc services.ContextFileService) *ContextFileHandler {
	return &ContextFileHandler{svc: svc}
}

// Import accepts a multipart upload {file, mode} and merges the parsed
// text into the project context.
func (h *ContextFileHandler) Import(c *gin.Context) {
	const op = "ContextFileHandler.Import"

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > maxContextFileBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil))
		return
	}

	mode := c.DefaultPostForm("mode", "append")
	if mode != "append" && mode != "replace" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "mode must be append or replace", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxContextFileBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}

	p, err := h.svc.Import(c.Request.Context(), c.Param("project_id"), projectToken(c), fh.Filename, mode, content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
