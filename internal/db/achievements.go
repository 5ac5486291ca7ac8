package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/achievement-classifier/internal/types"
)

const issueDateLayout = "2006-01-02"

const achievementColumns = `id, student_id, title, description, category, subcategory, points, confidence,
	issuer, issue_date, status, source, evidence_url, analysis, created_at, updated_at`

// StudentSummary aggregates a student's records by review status
type StudentSummary struct {
	StudentID      string `json:"student_id"`
	Total          int    `json:"total"`
	Pending        int    `json:"pending"`
	Approved       int    `json:"approved"`
	Rejected       int    `json:"rejected"`
	ApprovedPoints int    `json:"approved_points"`
}

// CreateAchievement inserts a new achievement record. A zero ID is replaced with a new UUID.
func (db *DB) CreateAchievement(ctx context.Context, rec *types.AchievementRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Status == "" {
		rec.Status = types.StatusPending
	}
	if !rec.Status.IsValid() {
		return fmt.Errorf("invalid status %q", rec.Status)
	}

	analysis, err := marshalAnalysis(rec.Analysis)
	if err != nil {
		return err
	}
	issueDate, err := issueDateParam(rec.IssueDate)
	if err != nil {
		return err
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO achievements (id, student_id, title, description, category, subcategory, points,
		     confidence, issuer, issue_date, status, source, evidence_url, analysis)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at, updated_at`,
		rec.ID, rec.StudentID, rec.Title, rec.Description, string(rec.Category), rec.Subcategory, rec.Points,
		rec.Confidence, rec.Issuer, issueDate, string(rec.Status), string(rec.Source), rec.EvidenceURL, analysis,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	return nil
}

// Save stores a record produced by the evidence pipeline
func (db *DB) Save(ctx context.Context, rec *types.AchievementRecord) error {
	return db.CreateAchievement(ctx, rec)
}

// GetAchievement retrieves a record by ID. It returns nil, nil when no record exists.
func (db *DB) GetAchievement(ctx context.Context, id uuid.UUID) (*types.AchievementRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+achievementColumns+` FROM achievements WHERE id = $1`, id)

	rec, err := scanAchievement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return rec, nil
}

// ListAchievementsByStudent returns a student's records, newest first, optionally filtered by status
func (db *DB) ListAchievementsByStudent(ctx context.Context, studentID string, status types.RecordStatus) ([]types.AchievementRecord, error) {
	var rows pgx.Rows
	var err error

	if status == "" {
		rows, err = db.pool.Query(ctx,
			`SELECT `+achievementColumns+` FROM achievements
			 WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT `+achievementColumns+` FROM achievements
			 WHERE student_id = $1 AND status = $2 ORDER BY created_at DESC`, studentID, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var records []types.AchievementRecord
	for rows.Next() {
		rec, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}
	return records, nil
}

// UpdateAchievementStatus sets the review status of a record and returns the updated record.
// It returns nil, nil when no record exists.
func (db *DB) UpdateAchievementStatus(ctx context.Context, id uuid.UUID, status types.RecordStatus) (*types.AchievementRecord, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	row := db.pool.QueryRow(ctx,
		`UPDATE achievements SET status = $1, updated_at = NOW() WHERE id = $2
		 RETURNING `+achievementColumns,
		string(status), id,
	)
	rec, err := scanAchievement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update achievement status: %w", err)
	}
	return rec, nil
}

// SummarizeStudent counts a student's records per status and totals the approved points
func (db *DB) SummarizeStudent(ctx context.Context, studentID string) (*StudentSummary, error) {
	summary := &StudentSummary{StudentID: studentID}
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'approved'),
		        COUNT(*) FILTER (WHERE status = 'rejected'),
		        COALESCE(SUM(points) FILTER (WHERE status = 'approved'), 0)
		 FROM achievements WHERE student_id = $1`,
		studentID,
	).Scan(&summary.Total, &summary.Pending, &summary.Approved, &summary.Rejected, &summary.ApprovedPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize student: %w", err)
	}
	return summary, nil
}

// scanAchievement reads one row selected with achievementColumns
func scanAchievement(row pgx.Row) (*types.AchievementRecord, error) {
	var rec types.AchievementRecord
	var category, status, source string
	var issueDate *time.Time
	var analysis []byte

	err := row.Scan(&rec.ID, &rec.StudentID, &rec.Title, &rec.Description, &category, &rec.Subcategory,
		&rec.Points, &rec.Confidence, &rec.Issuer, &issueDate, &status, &source, &rec.EvidenceURL,
		&analysis, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Category = types.Category(category)
	rec.Status = types.RecordStatus(status)
	rec.Source = types.RecordSource(source)
	rec.IssueDate = formatIssueDate(issueDate)
	if rec.Analysis, err = unmarshalAnalysis(analysis); err != nil {
		return nil, err
	}
	return &rec, nil
}

func marshalAnalysis(analysis *types.AchievementAnalysis) ([]byte, error) {
	if analysis == nil {
		return nil, nil
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return data, nil
}

func unmarshalAnalysis(data []byte) (*types.AchievementAnalysis, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var analysis types.AchievementAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &analysis, nil
}

// issueDateParam converts a YYYY-MM-DD string to a DATE parameter; empty means NULL
func issueDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(issueDateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid issue date %q: %w", s, err)
	}
	return &t, nil
}

func formatIssueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(issueDateLayout)
}
