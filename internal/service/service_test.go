package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalcoach/internal/llm"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
	"github.com/templui/goalcoach/internal/testutil"
)

var now = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func fixedClock() time.Time { return now }

type fakeCompleter struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Model: "fake"}, nil
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) Save(_ context.Context, path string, body io.Reader, _ string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memoryStorage) URL(_ context.Context, path string) (string, error) {
	return "https://files.test/" + path, nil
}

func newGoalService(t *testing.T, db *sqlx.DB, limit int) *GoalService {
	t.Helper()
	s := NewGoalService(repository.NewGoalRepository(db), limit)
	s.now = fixedClock
	return s
}

func seedGoal(t *testing.T, s *GoalService, userID, title string, milestones ...string) *model.Goal {
	t.Helper()
	g := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Type:      model.GoalTypeFitness,
		Status:    model.GoalStatusActive,
		Priority:  model.PriorityMedium,
		StartDate: now.AddDate(0, -1, 0),
		Tags:      model.StringList{},
		Obstacles: model.StringList{},
		Resources: model.StringList{},
		CreatedAt: now.AddDate(0, -1, 0),
		UpdatedAt: now.AddDate(0, -1, 0),
	}
	for i, m := range milestones {
		g.Milestones = append(g.Milestones, model.Milestone{
			ID:        uuid.New().String(),
			Position:  i,
			Title:     m,
			Status:    model.MilestoneStatusNotStarted,
			CreatedAt: g.CreatedAt,
			UpdatedAt: g.CreatedAt,
		})
	}
	require.NoError(t, s.Save(g))
	return g
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)

func base64PNG() string {
	return base64.StdEncoding.EncodeToString(pngBytes)
}

var errBoom = errors.New("boom")

func testDB(t *testing.T) *sqlx.DB {
	return testutil.NewTestDB(t)
}
