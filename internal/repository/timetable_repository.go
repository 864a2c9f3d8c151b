package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/schedule-hub/timetable-api/internal/models"
)

// TimetableRepository persists accepted timetable candidates and their rows.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the timetable header record.
func (r *TimetableRepository) Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.InstituteID == "" || timetable.Session == "" {
		return fmt.Errorf("institute_id and session are required")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	const query = `
INSERT INTO timetables (id, institute_id, session, year, institute_timetable_id, status, break_start, break_end, meta, created_at, updated_at)
VALUES (:id, :institute_id, :session, :year, :institute_timetable_id, :status, :break_start, :break_end, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertDetails stores the candidate's slot rows for a timetable.
func (r *TimetableRepository) InsertDetails(ctx context.Context, exec sqlx.ExtContext, details []models.TimetableDetailRow) error {
	if len(details) == 0 {
		return nil
	}
	now := time.Now().UTC()
	target := r.exec(exec)
	const query = `
INSERT INTO timetable_details (id, timetable_id, row_id, room_number, class_name, course, day, time_range, instructor_name, created_at)
VALUES (:id, :timetable_id, :row_id, :room_number, :class_name, :course, :day, :time_range, :instructor_name, :created_at)`
	for i := range details {
		if details[i].ID == "" {
			details[i].ID = uuid.NewString()
		}
		if details[i].CreatedAt.IsZero() {
			details[i].CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, details[i]); err != nil {
			return fmt.Errorf("insert timetable detail %d: %w", details[i].RowID, err)
		}
	}
	return nil
}

// ListByInstitute returns saved timetables for an institute, optionally
// narrowed by session and year.
func (r *TimetableRepository) ListByInstitute(ctx context.Context, instituteID, session string, year int) ([]models.Timetable, error) {
	query := `SELECT id, institute_id, session, year, institute_timetable_id, status, break_start, break_end, meta, created_at, updated_at
FROM timetables WHERE institute_id = $1`
	args := []interface{}{instituteID}
	if session != "" {
		args = append(args, session)
		query += fmt.Sprintf(" AND session = $%d", len(args))
	}
	if year > 0 {
		args = append(args, year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// FindByID loads a timetable by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, institute_id, session, year, institute_timetable_id, status, break_start, break_end, meta, created_at, updated_at
FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListDetails returns the slot rows of a timetable in row order.
func (r *TimetableRepository) ListDetails(ctx context.Context, timetableID string) ([]models.TimetableDetailRow, error) {
	const query = `SELECT id, timetable_id, row_id, room_number, class_name, course, day, time_range, instructor_name, created_at
FROM timetable_details WHERE timetable_id = $1 ORDER BY row_id ASC`
	var details []models.TimetableDetailRow
	if err := r.db.SelectContext(ctx, &details, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable details: %w", err)
	}
	return details, nil
}

// Delete removes a stored timetable; detail rows cascade at the database.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
