package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const runColumns = `id, sequence, kind, target_id, total_items, succeeded_items, added_total, cancelled, started_at, completed_at, created_at`

// RunRepository implements models.Repository[*models.Run] for the batch history.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create stores a run and its items, assigning ID and sequence.
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := shared.GenerateID()

	_, err = tx.Exec(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		sequence,
		run.Kind(),
		run.TargetID(),
		run.TotalItems(),
		run.SucceededItems(),
		run.AddedTotal(),
		run.Cancelled(),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_items (run_id, position, item, succeeded, added_count, error_message, log_line)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range run.Items() {
		var errMsg sql.NullString
		if !item.Outcome.Succeeded {
			errMsg = sql.NullString{String: item.Outcome.ErrorMessage, Valid: true}
		}
		if _, err := stmt.Exec(id, item.Position, item.Outcome.Item, item.Outcome.Succeeded, item.Outcome.AddedCount, errMsg, item.LogLine); err != nil {
			return fmt.Errorf("failed to insert run item %d: %w", item.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run and its items by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	return r.getWithItems(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a run and its items by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.getWithItems(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves runs, newest first, without their items.
//
// Supported criteria: "kind" (string), "target_id" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	if target, ok := criteria["target_id"].(string); ok && target != "" {
		query += " AND target_id = ?"
		args = append(args, target)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) getWithItems(row *sql.Row, key string) (*models.Run, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.items(run.ID())
	if err != nil {
		return nil, err
	}
	run.SetItems(items)
	return run, nil
}

func (r *RunRepository) items(runID string) ([]models.RunItem, error) {
	rows, err := r.db.Query(`
		SELECT position, item, succeeded, added_count, error_message, log_line
		FROM run_items
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []models.RunItem
	for rows.Next() {
		var (
			it     models.RunItem
			errMsg sql.NullString
		)
		if err := rows.Scan(&it.Position, &it.Outcome.Item, &it.Outcome.Succeeded, &it.Outcome.AddedCount, &errMsg, &it.LogLine); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}
		it.Outcome.ErrorMessage = errMsg.String
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		id        string
		sequence  int
		p         models.RunParams
		createdAt time.Time
	)

	err := s.Scan(&id, &sequence, &p.Kind, &p.TargetID, &p.TotalItems, &p.SucceededItems, &p.AddedTotal, &p.Cancelled, &p.StartedAt, &p.CompletedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return models.LoadRun(id, sequence, p, createdAt), nil
}
