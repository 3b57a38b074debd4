package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/studycoach/internal/plan"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreatePlan(ctx context.Context, in Plan) error {
	progress, err := encodeProgress(in.Progress)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plans (id, title, goal, tags, body, progress, feedback, days, start_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Goal, in.Tags, in.Body, progress, in.Feedback, in.Days,
		nullTime(in.StartDate), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetPlan(ctx context.Context, id string) (Plan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, goal, tags, body, progress, feedback, days, start_date, created_at
		FROM plans WHERE id = ?`, id)
	item, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdatePlanBody(ctx context.Context, id, body string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE plans SET body = ? WHERE id = ?`, body, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// UpdateProgress replaces the whole progress map of a plan.
func (r *SQLiteRepository) UpdateProgress(ctx context.Context, id string, progress plan.Progress) error {
	encoded, err := encodeProgress(progress)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE plans SET progress = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) UpdateFeedback(ctx context.Context, id, feedback string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE plans SET feedback = ? WHERE id = ?`, feedback, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeletePlan(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListPlans(ctx context.Context, filter PlanListFilter) ([]Plan, error) {
	query := `SELECT id, title, goal, tags, body, progress, feedback, days, start_date, created_at FROM plans`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if q := strings.TrimSpace(filter.Query); q != "" {
		clauses = append(clauses, "(instr(lower(title), lower(?)) > 0 OR instr(lower(goal), lower(?)) > 0 OR instr(lower(body), lower(?)) > 0)")
		args = append(args, q, q, q)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		clauses = append(clauses, "instr(',' || replace(lower(tags), ' ', '') || ',', ',' || lower(?) || ',') > 0")
		args = append(args, strings.ReplaceAll(tag, " ", ""))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Plan, 0)
	for rows.Next() {
		item, scanErr := scanPlan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Get implements the local key-value store.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM local_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, mustTime(r.now()),
	)
	return err
}

// Delete is idempotent.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM local_kv WHERE key = ?`, key)
	return err
}

func encodeProgress(p plan.Progress) (string, error) {
	if p == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode progress: %w", err)
	}
	return string(raw), nil
}

// decodeProgress also accepts the "[]" the web importer used to write for
// brand new plans.
func decodeProgress(raw string) (plan.Progress, error) {
	out := make(plan.Progress)
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "[]" || trimmed == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return out, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (Plan, error) {
	var out Plan
	var progress string
	var start sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.Title, &out.Goal, &out.Tags, &out.Body, &progress, &out.Feedback, &out.Days, &start, &created); err != nil {
		return Plan{}, err
	}
	decoded, err := decodeProgress(progress)
	if err != nil {
		return Plan{}, err
	}
	startDate, err := parseNullableTime(start)
	if err != nil {
		return Plan{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Plan{}, err
	}
	out.Progress = decoded
	out.StartDate = startDate
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
