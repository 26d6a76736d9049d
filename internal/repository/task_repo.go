package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskboard/internal/model"
)

// TaskQuery describes an owner-scoped listing: optional completed filter,
// optional sort, optional page window. Nil Limit/Skip mean "no bound".
type TaskQuery struct {
	Completed *bool
	SortField string
	SortDesc  bool
	Limit     *int
	Skip      *int
}

// TaskUpdate is a partial field overwrite; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

// sortColumns maps external sort field names to table columns. ORDER BY
// cannot be a bind parameter, so anything outside this map is ignored.
var sortColumns = map[string]string{
	"title":       "title",
	"description": "description",
	"completed":   "completed",
	"createdAt":   "created_at",
}

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int, error) {
	r.logger.Debug("Inserting task",
		zap.Int("owner_id", t.OwnerID),
		zap.String("title", t.Title),
		zap.Bool("completed", t.Completed),
	)
	query := `
        INSERT INTO tasks (title, description, completed, owner_id, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Completed,
		t.OwnerID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int("owner_id", t.OwnerID),
		)
		return 0, err
	}
	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", t.ID),
		zap.Int("owner_id", t.OwnerID),
	)
	return t.ID, nil
}

// ListByOwner fetches the owner's tasks matching q. Ownership scoping lives
// in the WHERE clause only.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int, q TaskQuery) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for owner", zap.Int("owner_id", ownerID))

	var sb strings.Builder
	sb.WriteString(`
        SELECT id, title, description, completed, owner_id, created_at
        FROM tasks
        WHERE owner_id = $1
    `)
	args := []any{ownerID}

	if q.Completed != nil {
		args = append(args, *q.Completed)
		fmt.Fprintf(&sb, " AND completed = $%d", len(args))
	}

	if col, ok := sortColumns[q.SortField]; ok {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s, id ASC", col, dir)
	} else {
		sb.WriteString(" ORDER BY id ASC")
	}

	if q.Limit != nil {
		args = append(args, *q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if q.Skip != nil {
		args = append(args, *q.Skip)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.Int("owner_id", ownerID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.Completed,
			&t.OwnerID,
			&t.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan task row",
				zap.Error(err),
				zap.Int("owner_id", ownerID),
			)
			return nil, err
		}
		tasks = append(tasks, t)
	}
	r.logger.Info("Tasks listed successfully",
		zap.Int("owner_id", ownerID),
		zap.Int("count", len(tasks)),
	)
	return tasks, rows.Err()
}

// CountAll returns the task count across all users.
func (r *TaskRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count tasks", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int) (*model.Task, error) {
	query := `
        SELECT id, title, description, completed, owner_id, created_at
        FROM tasks
        WHERE id = $1
    `
	return r.scanOne(ctx, query, id)
}

func (r *TaskRepository) FindOwned(ctx context.Context, id, ownerID int) (*model.Task, error) {
	query := `
        SELECT id, title, description, completed, owner_id, created_at
        FROM tasks
        WHERE id = $1 AND owner_id = $2
    `
	return r.scanOne(ctx, query, id, ownerID)
}

func (r *TaskRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Task, error) {
	var t model.Task
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Completed,
		&t.OwnerID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, id int, fields TaskUpdate) (*model.Task, error) {
	return r.update(ctx, "WHERE id = $1", []any{id}, fields)
}

func (r *TaskRepository) UpdateOwned(ctx context.Context, id, ownerID int, fields TaskUpdate) (*model.Task, error) {
	return r.update(ctx, "WHERE id = $1 AND owner_id = $2", []any{id, ownerID}, fields)
}

func (r *TaskRepository) update(ctx context.Context, where string, args []any, fields TaskUpdate) (*model.Task, error) {
	set := []string{}
	if fields.Title != nil {
		args = append(args, *fields.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if fields.Description != nil {
		args = append(args, *fields.Description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if fields.Completed != nil {
		args = append(args, *fields.Completed)
		set = append(set, fmt.Sprintf("completed = $%d", len(args)))
	}
	if len(set) == 0 {
		// Nothing to overwrite; behave like a plain fetch.
		query := `
            SELECT id, title, description, completed, owner_id, created_at
            FROM tasks ` + where
		return r.scanOne(ctx, query, args...)
	}

	query := fmt.Sprintf(`
        UPDATE tasks
        SET %s
        %s
        RETURNING id, title, description, completed, owner_id, created_at
    `, strings.Join(set, ", "), where)

	t, err := r.scanOne(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Error(err))
		return nil, err
	}
	r.logger.Info("Task updated successfully", zap.Int("task_id", t.ID))
	return t, nil
}

// Delete removes the task scoped to {id, owner}. Returns false when no such
// row exists, so callers can report NotFound instead of faulting.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.Int("task_id", id),
			zap.Int("owner_id", ownerID),
		)
		return false, err
	}
	deleted := result.RowsAffected() > 0
	if deleted {
		r.logger.Info("Task deleted successfully",
			zap.Int("task_id", id),
			zap.Int("owner_id", ownerID),
		)
	}
	return deleted, nil
}
