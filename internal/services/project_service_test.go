package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

type memProjectRepo struct {
	rows map[string]*models.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{rows: make(map[string]*models.Project)}
}

func (m *memProjectRepo) Create(ctx context.Context, p *models.Project) error {
	if _, ok := m.rows[p.ID]; ok {
		return errors.New("duplicate key")
	}
	clone := *p
	m.rows[p.ID] = &clone
	return nil
}

func (m *memProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memProjectRepo) GetByIDAndToken(ctx context.Context, id, token string) (*models.Project, error) {
	p, ok := m.rows[id]
	if !ok || p.Token != token {
		return nil, utils.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memProjectRepo) ListByToken(ctx context.Context, token string) ([]models.Project, error) {
	var out []models.Project
	for _, p := range m.rows {
		if p.Token == token {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProjectRepo) Save(ctx context.Context, p *models.Project) error {
	clone := *p
	m.rows[p.ID] = &clone
	return nil
}

func (m *memProjectRepo) ExistsID(ctx context.Context, id string) (bool, error) {
	_, ok := m.rows[id]
	return ok, nil
}

func newProjectService(repo *memProjectRepo) ProjectService {
	return NewProjectService(repo, nil, "google/gemini-2.0-flash-001", discardLogger())
}

func TestProjectCreateGeneratesToken(t *testing.T) {
	svc := newProjectService(newMemProjectRepo())

	p, err := svc.Create(context.Background(), "Sales Calls", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "sales-calls" {
		t.Errorf("id = %q, want sales-calls", p.ID)
	}
	// 24 random bytes in unpadded url-safe base64.
	if len(p.Token) != 32 {
		t.Errorf("token length = %d, want 32", len(p.Token))
	}
	if strings.ContainsAny(p.Token, "+/=") {
		t.Errorf("token %q is not url-safe", p.Token)
	}
	if p.LLMModel != "google/gemini-2.0-flash-001" {
		t.Errorf("llm model = %q, want the configured default", p.LLMModel)
	}
	if p.Files == nil || len(p.Files) != 0 {
		t.Errorf("files = %#v, want empty non-nil list", p.Files)
	}
	if p.CreatedAt.IsZero() || !p.UpdatedAt.Equal(p.CreatedAt) {
		t.Errorf("timestamps: created=%v updated=%v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestProjectCreateKeepsCallerToken(t *testing.T) {
	svc := newProjectService(newMemProjectRepo())

	p, err := svc.Create(context.Background(), "Second", "existing-token")
	if err != nil {
		t.Fatal(err)
	}
	if p.Token != "existing-token" {
		t.Errorf("token = %q, want the caller's token", p.Token)
	}
}

func TestProjectCreateCollisionSuffix(t *testing.T) {
	repo := newMemProjectRepo()
	svc := newProjectService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, "Demo", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Create(ctx, "Demo", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != "demo" {
		t.Errorf("first id = %q", first.ID)
	}
	if !strings.HasPrefix(second.ID, "demo-") || len(second.ID) != len("demo-")+4 {
		t.Errorf("second id = %q, want demo-<4 hex chars>", second.ID)
	}
}

func TestSlugifyProjectID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Project", "my-project"},
		{"Проект Альфа", "проект-альфа"},
		{"ACME  Corp 2024", "acme-corp-2024"},
		{"a--b", "a-b"},
		{"--leading--", "leading"},
		{"!!!", "project"},
		{"", "project"},
	}
	for _, tt := range tests {
		if got := slugifyProjectID(tt.in); got != tt.want {
			t.Errorf("slugifyProjectID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProjectGetScoping(t *testing.T) {
	svc := newProjectService(newMemProjectRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, "Scoped", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, created.ID, created.Token); err != nil {
		t.Errorf("get with owning token: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID, "wrong-token"); !utils.IsCode(err, utils.CodeNotFound) {
		t.Errorf("get with foreign token = %v, want NOT_FOUND", err)
	}
	if _, err := svc.Get(ctx, created.ID, ""); err != nil {
		t.Errorf("unscoped get: %v", err)
	}
	if _, err := svc.Get(ctx, "missing", created.Token); !utils.IsCode(err, utils.CodeNotFound) {
		t.Errorf("get of missing id = %v, want NOT_FOUND", err)
	}
}

func TestProjectListIsTokenScoped(t *testing.T) {
	svc := newProjectService(newMemProjectRepo())
	ctx := context.Background()

	a, err := svc.Create(ctx, "Mine", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "Mine Too", a.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "Theirs", ""); err != nil {
		t.Fatal(err)
	}

	mine, err := svc.List(ctx, a.Token)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("listed %d projects, want 2", len(mine))
	}
	for _, p := range mine {
		if p.Token != a.Token {
			t.Errorf("listed foreign project %q", p.ID)
		}
	}

	if _, err := svc.List(ctx, ""); !utils.IsCode(err, utils.CodeUnauthorized) {
		t.Errorf("list without token = %v, want UNAUTHORIZED", err)
	}
}

func TestProjectUpdate(t *testing.T) {
	svc := newProjectService(newMemProjectRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, "Update Me", "")
	if err != nil {
		t.Fatal(err)
	}

	name := "Renamed"
	contextText := "Новый контекст"
	updated, err := svc.Update(ctx, created.ID, created.Token, ProjectUpdate{
		Name:        &name,
		ContextText: &contextText,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Renamed" || updated.ContextText != "Новый контекст" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.LLMModel != created.LLMModel {
		t.Errorf("llm model changed without being set: %q", updated.LLMModel)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updated_at moved backwards")
	}

	if _, err := svc.Update(ctx, created.ID, "wrong-token", ProjectUpdate{Name: &name}); !utils.IsCode(err, utils.CodeNotFound) {
		t.Errorf("update with foreign token = %v, want NOT_FOUND", err)
	}
}
