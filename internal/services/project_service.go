package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/cache"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	pgrepo "github.com/blockscrafting-arch/VoiceCoPilot/internal/repositories/postgres"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

const projectCacheTTL = 5 * time.Minute

// ProjectUpdate lists the mutable project fields; nil means keep.
type ProjectUpdate struct {
	Name        *string
	ContextText *string
	LLMModel    *string
	Files       []string // replaces the whole list when non-nil
}

type ProjectService interface {
	// Create registers a project under token. An empty token mints a new
	// one; it is the caller's only chance to read it back.
	Create(ctx context.Context, name, token string) (*models.Project, error)
	// Get fetches by id. A non-empty token additionally requires
	// ownership; internal callers pass "".
	Get(ctx context.Context, id, token string) (*models.Project, error)
	List(ctx context.Context, token string) ([]models.Project, error)
	Update(ctx context.Context, id, token string, upd ProjectUpdate) (*models.Project, error)
}

type projectService struct {
	projects     pgrepo.ProjectRepository
	cache        cache.Cache
	defaultModel string
	log          *logrus.Entry
}

func NewProjectService(projects pgrepo.ProjectRepository, c cache.Cache, defaultModel string, log *logrus.Logger) ProjectService {
	if c == nil {
		c = cache.Noop{}
	}
	return &projectService{
		projects:     projects,
		cache:        c,
		defaultModel: defaultModel,
		log:          log.WithField("component", "projects"),
	}
}

func (s *projectService) Create(ctx context.Context, name, token string) (*models.Project, error) {
	const op = "ProjectService.Create"

	name = strings.TrimSpace(name)
	if token == "" {
		var err error
		if token, err = generateProjectToken(); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to generate token", err)
		}
	}

	id := slugifyProjectID(name)
	exists, err := s.projects.ExistsID(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check project id", err)
	}
	if exists {
		suffix, err := randomHex(2)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to generate id suffix", err)
		}
		id = id + "-" + suffix
	}

	now := time.Now().UTC()
	p := &models.Project{
		ID:        id,
		Name:      name,
		Token:     token,
		LLMModel:  s.defaultModel,
		Files:     pq.StringArray{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create project", err)
	}

	s.cacheSet(ctx, p)
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id, token string) (*models.Project, error) {
	const op = "ProjectService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "project id is required", nil)
	}

	// Only unscoped lookups are cached: the JSON round trip drops the
	// token field, and ownership checks should see fresh data anyway.
	if token == "" {
		var cached models.Project
		if hit, err := s.cache.GetJSON(ctx, cache.ProjectKey(id), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	var (
		p   *models.Project
		err error
	)
	if token != "" {
		p, err = s.projects.GetByIDAndToken(ctx, id, token)
	} else {
		p, err = s.projects.GetByID(ctx, id)
	}
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "project not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load project", err)
	}

	s.cacheSet(ctx, p)
	return p, nil
}

func (s *projectService) List(ctx context.Context, token string) ([]models.Project, error) {
	const op = "ProjectService.List"

	if token == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing project token", nil)
	}
	rows, err := s.projects.ListByToken(ctx, token)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list projects", err)
	}
	return rows, nil
}

func (s *projectService) Update(ctx context.Context, id, token string, upd ProjectUpdate) (*models.Project, error) {
	const op = "ProjectService.Update"

	if token == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing project token", nil)
	}
	p, err := s.projects.GetByIDAndToken(ctx, id, token)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "project not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load project", err)
	}

	if upd.Name != nil {
		p.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.ContextText != nil {
		p.ContextText = *upd.ContextText
	}
	if upd.LLMModel != nil {
		p.LLMModel = *upd.LLMModel
	}
	if upd.Files != nil {
		p.Files = pq.StringArray(upd.Files)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.projects.Save(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save project", err)
	}

	s.cacheSet(ctx, p)
	return p, nil
}

// cacheSet is best-effort; a cache write failure only costs a later DB hit.
func (s *projectService) cacheSet(ctx context.Context, p *models.Project) {
	if err := s.cache.SetJSON(ctx, cache.ProjectKey(p.ID), p, projectCacheTTL); err != nil {
		s.log.WithError(err).Debug("project cache write failed")
	}
}

// generateProjectToken mints an opaque bearer token: 24 random bytes,
// URL-safe base64 without padding.
func generateProjectToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func randomHex(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// slugifyProjectID turns a display name into a url-safe id: letters and
// digits are lowered, every other character becomes a dash, runs of
// dashes collapse. An empty result falls back to "project".
func slugifyProjectID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune('-')
		}
	}
	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	slug := strings.Join(parts, "-")
	if slug == "" {
		return "project"
	}
	return slug
}
