package task

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/pkg/metrics"
	"taskboard/pkg/mq"
)

var ErrNotFound = errors.New("task not found")

// ValidationError marks a rejected field overwrite; handlers surface it as a
// generic server error.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Scope selects between the corrected owner-scoped default and the unscoped
// variant kept for an admin surface.
type Scope int

const (
	ScopeOwner Scope = iota
	ScopeAny
)

const (
	totalCountKey = "tasks:total"
	totalCountTTL = 30 * time.Second
)

// TaskStore is the persistence boundary for tasks.
type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) (int, error)
	ListByOwner(ctx context.Context, ownerID int, q repository.TaskQuery) ([]model.Task, error)
	CountAll(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int) (*model.Task, error)
	FindOwned(ctx context.Context, id, ownerID int) (*model.Task, error)
	Update(ctx context.Context, id int, fields repository.TaskUpdate) (*model.Task, error)
	UpdateOwned(ctx context.Context, id, ownerID int, fields repository.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, id, ownerID int) (bool, error)
}

// Publisher emits task lifecycle events; pkg/mq.Publisher satisfies it.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	tasks  TaskStore
	rdb    *redis.Client
	events Publisher
	logger *zap.Logger
}

// NewService builds the task service. rdb and events may be nil; the count
// cache and event publishing are then skipped.
func NewService(tasks TaskStore, rdb *redis.Client, events Publisher, logger *zap.Logger) *Service {
	return &Service{tasks: tasks, rdb: rdb, events: events, logger: logger}
}

// ParseListQuery turns raw query parameters into a filter+sort+page plan.
//
// completed: the literal "true" filters for completed tasks; any other
// non-empty literal deliberately parses to a false filter. sortBy has the
// form "<field>_<asc|desc>"; a missing or unknown direction means ascending.
// When BOTH limit and skip are absent, the page defaults to limit=5 skip=0;
// when exactly one is present no default is injected for the other, and a
// malformed number degrades to "no bound".
func ParseListQuery(completed, sortBy, limit, skip string) repository.TaskQuery {
	var q repository.TaskQuery

	if completed != "" {
		v := parseCompleted(completed)
		q.Completed = &v
	}

	if sortBy != "" {
		parts := strings.SplitN(sortBy, "_", 2)
		q.SortField = parts[0]
		q.SortDesc = len(parts) == 2 && parts[1] == "desc"
	}

	if limit == "" && skip == "" {
		l, s := 5, 0
		q.Limit = &l
		q.Skip = &s
		return q
	}
	q.Limit = parseBound(limit)
	q.Skip = parseBound(skip)
	return q
}

// parseCompleted maps the form literal to a boolean: only "true" is true,
// everything else defaults to false.
func parseCompleted(literal string) bool {
	return literal == "true"
}

func parseBound(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// List fetches the requester's page window plus the grand-total task count
// across all users.
func (s *Service) List(ctx context.Context, ownerID int, q repository.TaskQuery) ([]model.Task, int, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID, q)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.countAllCached(ctx)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// countAllCached serves the grand total from redis when possible and falls
// back to the database when redis is missing or unreachable.
func (s *Service) countAllCached(ctx context.Context) (int, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, totalCountKey).Result(); err == nil {
			if n, convErr := strconv.Atoi(raw); convErr == nil {
				return n, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Redis count cache read failed, falling back to DB", zap.Error(err))
		}
	}

	total, err := s.tasks.CountAll(ctx)
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, totalCountKey, strconv.Itoa(total), totalCountTTL).Err(); err != nil {
			s.logger.Warn("Redis count cache write failed", zap.Error(err))
		}
	}
	return total, nil
}

func (s *Service) invalidateCount(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, totalCountKey).Err(); err != nil {
		s.logger.Warn("Redis count cache invalidation failed", zap.Error(err))
	}
}

// Create persists a new task owned by ownerID. completedLiteral follows the
// same literal-equality parse as the list filter.
func (s *Service) Create(ctx context.Context, title, description, completedLiteral string, ownerID int) (*model.Task, error) {
	t := &model.Task{
		Title:       title,
		Description: description,
		Completed:   parseCompleted(completedLiteral),
		OwnerID:     ownerID,
	}
	if _, err := s.tasks.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.invalidateCount(ctx)
	s.publish(mq.RoutingKeyTaskCreated, t)
	metrics.IncrementTaskMutation("create")
	return t, nil
}

// Get loads a task for the edit form. ScopeOwner restricts the lookup to the
// requester's own tasks; ScopeAny is the legacy unscoped read.
func (s *Service) Get(ctx context.Context, id, requesterID int, scope Scope) (*model.Task, error) {
	var (
		t   *model.Task
		err error
	)
	if scope == ScopeOwner {
		t, err = s.tasks.FindOwned(ctx, id, requesterID)
	} else {
		t, err = s.tasks.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update applies a partial field overwrite.
func (s *Service) Update(ctx context.Context, id, requesterID int, scope Scope, fields repository.TaskUpdate) (*model.Task, error) {
	if fields.Title != nil && *fields.Title == "" {
		return nil, &ValidationError{msg: "title must not be empty"}
	}

	var (
		t   *model.Task
		err error
	)
	if scope == ScopeOwner {
		t, err = s.tasks.UpdateOwned(ctx, id, requesterID, fields)
	} else {
		t, err = s.tasks.Update(ctx, id, fields)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.publish(mq.RoutingKeyTaskUpdated, t)
	metrics.IncrementTaskMutation("update")
	return t, nil
}

// Delete removes the task scoped to {id, owner}. A miss is an explicit
// ErrNotFound; the operation is a single idempotent remove.
func (s *Service) Delete(ctx context.Context, id, ownerID int) error {
	deleted, err := s.tasks.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	s.invalidateCount(ctx)
	s.publish(mq.RoutingKeyTaskDeleted, &model.Task{ID: id, OwnerID: ownerID})
	metrics.IncrementTaskMutation("delete")
	return nil
}

// publish emits a lifecycle event, best effort.
func (s *Service) publish(routingKey string, t *model.Task) {
	if s.events == nil {
		return
	}
	payload := mq.TaskEventPayload{
		TaskID:    t.ID,
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		Completed: t.Completed,
	}
	if err := s.events.Publish(routingKey, payload); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to publish %s event", routingKey),
			zap.Int("task_id", t.ID),
			zap.Error(err),
		)
	}
}
