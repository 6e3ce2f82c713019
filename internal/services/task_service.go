package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/projectpulse/backend/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) Create(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		Priority:    params.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if task.Status == "" {
		task.Status = models.StatusPending
	} else if !models.IsValidStatus(task.Status) {
		return nil, ErrInvalidTaskStatus
	}

	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	} else if !models.IsValidPriority(task.Priority) {
		return nil, ErrInvalidTaskPriority
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   description,
                   status,
                   priority,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) List(ctx context.Context, params ListTasksParams) ([]*models.Task, int64, error) {
	if params.Status != "" && !models.IsValidStatus(params.Status) {
		return nil, 0, ErrInvalidTaskStatus
	}
	if params.Priority != "" && !models.IsValidPriority(params.Priority) {
		return nil, 0, ErrInvalidTaskPriority
	}

	// Filters are conjunctive; the count runs against the same
	// WHERE clause so the total is independent of the page window.
	conditions := []string{"user_id = $1"}
	args := []any{params.UserID}
	if params.Status != "" {
		args = append(args, params.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Priority != "" {
		args = append(args, params.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	whereClause := strings.Join(conditions, " AND ")

	countTasksQuery := fmt.Sprintf(`
SELECT COUNT(*)
FROM tasks
WHERE %s
`, whereClause)

	var total int64
	err := s.pgPool.QueryRow(ctx, countTasksQuery, args...).Scan(&total)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count tasks")
		return nil, 0, err
	}

	selectTasksQuery := fmt.Sprintf(`
SELECT id,
       title,
       description,
       status,
       priority,
       created_at,
       updated_at
FROM tasks
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, whereClause, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pgPool.Query(ctx, selectTasksQuery, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, params.Limit)
	for rows.Next() {
		task := &models.Task{UserID: params.UserID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, 0, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Int64("total", total).
		Str("user_id", params.UserID).
		Msg("selected tasks")
	return tasks, total, nil
}

func (s *taskServiceImpl) GetByID(ctx context.Context, id int64, userID string) (*models.Task, error) {
	task := &models.Task{
		ID:     id,
		UserID: userID,
	}

	const selectTaskQuery = `
SELECT title,
       description,
       status,
       priority,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if params.Status != nil && !models.IsValidStatus(*params.Status) {
		return nil, ErrInvalidTaskStatus
	}
	if params.Priority != nil && !models.IsValidPriority(*params.Priority) {
		return nil, ErrInvalidTaskPriority
	}

	task := &models.Task{
		ID:        params.ID,
		UserID:    params.UserID,
		UpdatedAt: time.Now(),
	}

	// NULL arguments keep the stored value, so an empty body is a
	// no-op that still returns the current row.
	const updateTaskQuery = `
UPDATE tasks
SET title = COALESCE($1, title),
    description = COALESCE($2, description),
    status = COALESCE($3, status),
    priority = COALESCE($4, priority),
    updated_at = $5
WHERE id = $6 AND user_id = $7
RETURNING title, description, status, priority, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		params.Title,
		params.Description,
		params.Status,
		params.Priority,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, id int64, userID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		id,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Int64("task_id", id).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Int64("task_id", id).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}
