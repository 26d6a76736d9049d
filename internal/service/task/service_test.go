package task

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

func intPtr(n int) *int    { return &n }
func boolVal(b bool) *bool { return &b }

func TestParseListQuery_Pagination(t *testing.T) {
	cases := []struct {
		name        string
		limit, skip string
		wantLimit   *int
		wantSkip    *int
	}{
		{
			name:      "both absent defaults to limit 5 skip 0",
			wantLimit: intPtr(5),
			wantSkip:  intPtr(0),
		},
		{
			name:      "limit alone leaves skip unbounded",
			limit:     "10",
			wantLimit: intPtr(10),
		},
		{
			name:     "skip alone leaves limit unbounded",
			skip:     "3",
			wantSkip: intPtr(3),
		},
		{
			name:  "malformed limit degrades to no bound without injecting defaults",
			limit: "abc",
		},
		{
			name:  "negative limit degrades to no bound",
			limit: "-2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := ParseListQuery("", "", tc.limit, tc.skip)
			checkBound(t, "limit", q.Limit, tc.wantLimit)
			checkBound(t, "skip", q.Skip, tc.wantSkip)
		})
	}
}

func checkBound(t *testing.T, name string, got, want *int) {
	t.Helper()
	if (got == nil) != (want == nil) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	if got != nil && *got != *want {
		t.Fatalf("%s = %d, want %d", name, *got, *want)
	}
}

func TestParseListQuery_Filter(t *testing.T) {
	if q := ParseListQuery("", "", "", ""); q.Completed != nil {
		t.Fatalf("absent completed must not filter, got %v", *q.Completed)
	}
	if q := ParseListQuery("true", "", "", ""); q.Completed == nil || !*q.Completed {
		t.Fatalf("completed=true must filter for completed tasks")
	}
	if q := ParseListQuery("false", "", "", ""); q.Completed == nil || *q.Completed {
		t.Fatalf("completed=false must filter for pending tasks")
	}
	// Any other literal deliberately parses to a false filter.
	if q := ParseListQuery("banana", "", "", ""); q.Completed == nil || *q.Completed {
		t.Fatalf("unrecognized literal must default to false")
	}
}

func TestParseListQuery_Sort(t *testing.T) {
	cases := []struct {
		sortBy    string
		wantField string
		wantDesc  bool
	}{
		{"", "", false},
		{"title_desc", "title", true},
		{"title_asc", "title", false},
		{"createdAt", "createdAt", false},
		{"completed_desc", "completed", true},
		{"title_banana", "title", false},
	}
	for _, tc := range cases {
		q := ParseListQuery("", tc.sortBy, "", "")
		if q.SortField != tc.wantField || q.SortDesc != tc.wantDesc {
			t.Fatalf("sortBy=%q parsed to (%q, desc=%v), want (%q, desc=%v)",
				tc.sortBy, q.SortField, q.SortDesc, tc.wantField, tc.wantDesc)
		}
	}
}

// fakeTaskStore records the last call and serves canned data.
type fakeTaskStore struct {
	tasks     map[int]model.Task
	nextID    int
	lastQuery repository.TaskQuery
	lastOwner int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[int]model.Task{}}
}

func (s *fakeTaskStore) Insert(_ context.Context, t *model.Task) (int, error) {
	s.nextID++
	t.ID = s.nextID
	s.tasks[t.ID] = *t
	return t.ID, nil
}

func (s *fakeTaskStore) ListByOwner(_ context.Context, ownerID int, q repository.TaskQuery) ([]model.Task, error) {
	s.lastOwner = ownerID
	s.lastQuery = q
	out := []model.Task{}
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) CountAll(_ context.Context) (int, error) {
	return len(s.tasks), nil
}

func (s *fakeTaskStore) FindByID(_ context.Context, id int) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (s *fakeTaskStore) FindOwned(_ context.Context, id, ownerID int) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (s *fakeTaskStore) Update(_ context.Context, id int, fields repository.TaskUpdate) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	applyFields(&t, fields)
	s.tasks[id] = t
	return &t, nil
}

func (s *fakeTaskStore) UpdateOwned(_ context.Context, id, ownerID int, fields repository.TaskUpdate) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	applyFields(&t, fields)
	s.tasks[id] = t
	return &t, nil
}

func applyFields(t *model.Task, fields repository.TaskUpdate) {
	if fields.Title != nil {
		t.Title = *fields.Title
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.Completed != nil {
		t.Completed = *fields.Completed
	}
}

func (s *fakeTaskStore) Delete(_ context.Context, id, ownerID int) (bool, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

func newTestService(store *fakeTaskStore) *Service {
	return NewService(store, nil, nil, zap.NewNop())
}

func TestCreateParsesCompletedLiteral(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "A", "first", "true", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.Completed {
		t.Fatalf("literal \"true\" must create a completed task")
	}
	if created.OwnerID != 7 {
		t.Fatalf("owner = %d, want 7", created.OwnerID)
	}

	created, err = svc.Create(ctx, "B", "second", "yes", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Completed {
		t.Fatalf("non-\"true\" literal must create a pending task")
	}
}

func TestListScopesToOwnerAndCountsAllUsers(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "mine", "", "false", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, "theirs", "", "false", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	filter := boolVal(false)
	tasks, total, err := svc.List(ctx, 1, repository.TaskQuery{Completed: filter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "mine" {
		t.Fatalf("expected only the owner's task, got %v", tasks)
	}
	if total != 2 {
		t.Fatalf("grand total must span all users, got %d", total)
	}
	if store.lastOwner != 1 {
		t.Fatalf("query scoped to owner %d, want 1", store.lastOwner)
	}
	if store.lastQuery.Completed == nil || *store.lastQuery.Completed {
		t.Fatalf("completed filter not passed through")
	}
}

func TestDeleteNotFound(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(store)
	ctx := context.Background()

	// Nonexistent id reports NotFound instead of faulting.
	if err := svc.Delete(ctx, 42, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A task owned by a different user is NotFound for the requester and
	// stays intact.
	created, err := svc.Create(ctx, "theirs", "", "false", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, created.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := store.tasks[created.ID]; !ok {
		t.Fatalf("foreign task must remain intact")
	}

	if err := svc.Delete(ctx, created.ID, 2); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, ok := store.tasks[created.ID]; ok {
		t.Fatalf("task must be removed")
	}
}

func TestGetScope(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "theirs", "", "false", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Get(ctx, created.ID, 1, ScopeOwner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("owner scope must hide foreign tasks, got %v", err)
	}
	if _, err := svc.Get(ctx, created.ID, 1, ScopeAny); err != nil {
		t.Fatalf("unscoped read failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID, 2, ScopeOwner); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "A", "", "false", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := ""
	if _, err := svc.Update(ctx, created.ID, 1, ScopeOwner, repository.TaskUpdate{Title: &empty}); err == nil {
		t.Fatalf("empty title must be rejected")
	} else {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	}

	done := true
	updated, err := svc.Update(ctx, created.ID, 1, ScopeOwner, repository.TaskUpdate{Completed: &done})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Completed || updated.Title != "A" {
		t.Fatalf("partial overwrite went wrong: %+v", updated)
	}

	if _, err := svc.Update(ctx, created.ID, 9, ScopeOwner, repository.TaskUpdate{Completed: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("owner scope must hide foreign tasks on update, got %v", err)
	}
}
