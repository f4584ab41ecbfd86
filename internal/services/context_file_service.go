package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/fileparse"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/storage"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

// ContextFileService imports uploaded documents into a project's context
// text and keeps the raw originals in object storage.
type ContextFileService interface {
	// Import parses the file and merges its text into the project context.
	// mode "replace" overwrites the context; anything else appends with a
	// blank line. Returns the updated project.
	Import(ctx context.Context, projectID, token, filename, mode string, content []byte) (*models.Project, error)
}

type contextFileService struct {
	projects ProjectService
	uploader storage.Uploader // optional
	log      *logrus.Entry
}

func NewContextFileService(projects ProjectService, uploader storage.Uploader, log *logrus.Logger) ContextFileService {
	return &contextFileService{
		projects: projects,
		uploader: uploader,
		log:      log.WithField("component", "context_files"),
	}
}

func (s *contextFileService) Import(ctx context.Context, projectID, token, filename, mode string, content []byte) (*models.Project, error) {
	const op = "ContextFileService.Import"

	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "file"
	}

	project, err := s.projects.Get(ctx, projectID, token)
	if err != nil {
		return nil, err
	}

	extracted, err := fileparse.Parse(filename, content)
	if errors.Is(err, fileparse.ErrUnsupportedType) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Unsupported file type", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "failed to parse file", err)
	}

	updatedText := extracted
	if mode != "replace" {
		updatedText = project.ContextText
		if updatedText != "" {
			updatedText += "\n\n"
		}
		updatedText += extracted
	}

	// The raw copy is a convenience for re-parsing later; losing it must
	// not fail the import.
	files := append([]string(nil), project.Files...)
	if s.uploader != nil {
		key := fmt.Sprintf("projects/%s/context_files/%s", projectID, filename)
		if _, err := s.uploader.Upload(ctx, key, "application/octet-stream", bytes.NewReader(content)); err != nil {
			s.log.WithError(err).WithField("project_id", projectID).Warn("failed to store raw context file")
		} else {
			files = append(files, filename)
		}
	}

	upd := ProjectUpdate{ContextText: &updatedText}
	if len(files) != len(project.Files) {
		upd.Files = files
	}
	return s.projects.Update(ctx, projectID, token, upd)
}
