package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

// SQLiteStore persists the pipeline's state in a local SQLite database.
// Conditional updates are plain `UPDATE ... WHERE id=? AND status=?`
// statements; zero rows affected on an existing record means another
// process won the race.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; serializing through a single
	// connection avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// EnsureSchema creates the tables and indexes if missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			report_type TEXT NOT NULL,
			template_id TEXT,
			narrative TEXT NOT NULL,
			accuracy_score REAL,
			status TEXT NOT NULL,
			flag_reason TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_org ON reports(org_id)`,
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			name TEXT NOT NULL,
			required_fields TEXT NOT NULL,
			field_definitions TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_org ON templates(org_id)`,
		`CREATE TABLE IF NOT EXISTS queue_items (
			id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			report_id TEXT NOT NULL,
			accuracy_score REAL NOT NULL,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			due_date TEXT NOT NULL,
			assigned_to TEXT,
			assigned_at TEXT,
			resolution TEXT,
			resolution_notes TEXT,
			resolved_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_org_status ON queue_items(org_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_report ON queue_items(report_id)`,
		`CREATE TABLE IF NOT EXISTS org_aggregates (
			org_id TEXT PRIMARY KEY,
			report_count INTEGER NOT NULL DEFAULT 0,
			low_accuracy_count INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- reports ---

func (s *SQLiteStore) CreateReport(ctx context.Context, r *models.ReportDraft) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, org_id, report_type, template_id, narrative, accuracy_score, status, flag_reason, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OrgID, r.ReportType, nullString(r.TemplateID), r.Narrative,
		nullFloat(r.AccuracyScore), r.Status, r.FlagReason, r.CreatedBy,
		fmtTime(r.CreatedAt), fmtTime(r.UpdatedAt))
	return err
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*models.ReportDraft, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, report_type, template_id, narrative, accuracy_score, status, flag_reason, created_by, created_at, updated_at
		 FROM reports WHERE id = ?`, id)
	return scanReport(row)
}

func (s *SQLiteStore) UpdateReport(ctx context.Context, r *models.ReportDraft) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reports SET narrative=?, accuracy_score=?, status=?, flag_reason=?, updated_at=? WHERE id=?`,
		r.Narrative, nullFloat(r.AccuracyScore), r.Status, r.FlagReason, fmtTime(r.UpdatedAt), r.ID)
	return err
}

func (s *SQLiteStore) UpdateReportConditional(ctx context.Context, r *models.ReportDraft, expectedStatus string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET narrative=?, accuracy_score=?, status=?, flag_reason=?, updated_at=? WHERE id=? AND status=?`,
		r.Narrative, nullFloat(r.AccuracyScore), r.Status, r.FlagReason, fmtTime(r.UpdatedAt), r.ID, expectedStatus)
	if err != nil {
		return err
	}
	return checkAffected(res, "report", r.ID)
}

func (s *SQLiteStore) CountReports(ctx context.Context, orgID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE org_id = ?`, orgID).Scan(&n)
	return n, err
}

func scanReport(row *sql.Row) (*models.ReportDraft, error) {
	var r models.ReportDraft
	var templateID sql.NullString
	var score sql.NullFloat64
	var createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.OrgID, &r.ReportType, &templateID, &r.Narrative,
		&score, &r.Status, &r.FlagReason, &r.CreatedBy, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if templateID.Valid {
		r.TemplateID = &templateID.String
	}
	if score.Valid {
		r.AccuracyScore = &score.Float64
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// --- templates ---

func (s *SQLiteStore) CreateTemplate(ctx context.Context, t *models.TemplateDefinition) error {
	required, defs, err := marshalTemplate(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, org_id, name, required_fields, field_definitions, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrgID, t.Name, required, defs, t.CreatedBy, fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt))
	return err
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, required_fields, field_definitions, created_by, created_at, updated_at
		 FROM templates WHERE id = ?`, id)
	var t models.TemplateDefinition
	var required, defs, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.OrgID, &t.Name, &required, &defs, &t.CreatedBy, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalTemplate(&t, required, defs); err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context, orgID string) ([]models.TemplateDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, name, required_fields, field_definitions, created_by, created_at, updated_at
		 FROM templates WHERE org_id = ? ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TemplateDefinition
	for rows.Next() {
		var t models.TemplateDefinition
		var required, defs, createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &required, &defs, &t.CreatedBy, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalTemplate(&t, required, defs); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t *models.TemplateDefinition) error {
	required, defs, err := marshalTemplate(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE templates SET name=?, required_fields=?, field_definitions=?, updated_at=? WHERE id=?`,
		t.Name, required, defs, fmtTime(t.UpdatedAt), t.ID)
	return err
}

func marshalTemplate(t *models.TemplateDefinition) (string, string, error) {
	required, err := json.Marshal(t.RequiredFields)
	if err != nil {
		return "", "", fmt.Errorf("marshal required fields: %w", err)
	}
	defs, err := json.Marshal(t.FieldDefinitions)
	if err != nil {
		return "", "", fmt.Errorf("marshal field definitions: %w", err)
	}
	return string(required), string(defs), nil
}

func unmarshalTemplate(t *models.TemplateDefinition, required, defs string) error {
	if err := json.Unmarshal([]byte(required), &t.RequiredFields); err != nil {
		return fmt.Errorf("unmarshal required fields: %w", err)
	}
	if err := json.Unmarshal([]byte(defs), &t.FieldDefinitions); err != nil {
		return fmt.Errorf("unmarshal field definitions: %w", err)
	}
	return nil
}

// --- queue items ---

func (s *SQLiteStore) CreateQueueItem(ctx context.Context, item *models.ReviewQueueItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queue_items (id, org_id, report_id, accuracy_score, status, priority, due_date, assigned_to, assigned_at, resolution, resolution_notes, resolved_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OrgID, item.ReportID, item.AccuracyScore, item.Status,
		item.Priority, fmtTime(item.DueDate), nullString(item.AssignedTo),
		nullTime(item.AssignedAt), nullString(item.Resolution),
		nullString(item.ResolutionNotes), nullTime(item.ResolvedAt),
		fmtTime(item.CreatedAt))
	return err
}

func (s *SQLiteStore) GetQueueItem(ctx context.Context, id string) (*models.ReviewQueueItem, error) {
	row := s.db.QueryRowContext(ctx, queueItemSelect+` WHERE id = ?`, id)
	item, err := scanQueueItemRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SQLiteStore) UpdateQueueItemConditional(ctx context.Context, item *models.ReviewQueueItem, expectedStatus string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET status=?, assigned_to=?, assigned_at=?, resolution=?, resolution_notes=?, resolved_at=?
		 WHERE id=? AND status=?`,
		item.Status, nullString(item.AssignedTo), nullTime(item.AssignedAt),
		nullString(item.Resolution), nullString(item.ResolutionNotes),
		nullTime(item.ResolvedAt), item.ID, expectedStatus)
	if err != nil {
		return err
	}
	return checkAffected(res, "queue item", item.ID)
}

func (s *SQLiteStore) FindOpenQueueItem(ctx context.Context, reportID string) (*models.ReviewQueueItem, error) {
	row := s.db.QueryRowContext(ctx,
		queueItemSelect+` WHERE report_id = ? AND status != ? LIMIT 1`,
		reportID, models.QueueStatusResolved)
	item, err := scanQueueItemRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SQLiteStore) ListQueueItems(ctx context.Context, orgID string, openOnly bool) ([]models.ReviewQueueItem, error) {
	query := queueItemSelect + ` WHERE org_id = ?`
	args := []any{orgID}
	if openOnly {
		query += ` AND status != ?`
		args = append(args, models.QueueStatusResolved)
	}
	query += ` ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, due_date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReviewQueueItem
	for rows.Next() {
		item, err := scanQueueItemRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListDueBefore(ctx context.Context, cutoff time.Time) ([]models.ReviewQueueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		queueItemSelect+` WHERE status != ? AND due_date < ? ORDER BY due_date`,
		models.QueueStatusResolved, fmtTime(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReviewQueueItem
	for rows.Next() {
		item, err := scanQueueItemRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

const queueItemSelect = `SELECT id, org_id, report_id, accuracy_score, status, priority, due_date, assigned_to, assigned_at, resolution, resolution_notes, resolved_at, created_at FROM queue_items`

func scanQueueItemRow(scan func(dest ...any) error) (*models.ReviewQueueItem, error) {
	var item models.ReviewQueueItem
	var dueDate, createdAt string
	var assignedTo, assignedAt, resolution, notes, resolvedAt sql.NullString
	err := scan(&item.ID, &item.OrgID, &item.ReportID, &item.AccuracyScore,
		&item.Status, &item.Priority, &dueDate, &assignedTo, &assignedAt,
		&resolution, &notes, &resolvedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	item.DueDate = parseTime(dueDate)
	item.CreatedAt = parseTime(createdAt)
	if assignedTo.Valid {
		item.AssignedTo = &assignedTo.String
	}
	if assignedAt.Valid {
		t := parseTime(assignedAt.String)
		item.AssignedAt = &t
	}
	if resolution.Valid {
		item.Resolution = &resolution.String
	}
	if notes.Valid {
		item.ResolutionNotes = &notes.String
	}
	if resolvedAt.Valid {
		t := parseTime(resolvedAt.String)
		item.ResolvedAt = &t
	}
	return &item, nil
}

// --- org aggregates ---

func (s *SQLiteStore) GetOrgAggregate(ctx context.Context, orgID string) (*models.OrganizationAggregate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT org_id, report_count, low_accuracy_count, updated_at FROM org_aggregates WHERE org_id = ?`, orgID)
	var agg models.OrganizationAggregate
	var updatedAt string
	err := row.Scan(&agg.OrgID, &agg.ReportCount, &agg.LowAccuracyCount, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	agg.UpdatedAt = parseTime(updatedAt)
	return &agg, nil
}

func (s *SQLiteStore) IncrementOrgCounters(ctx context.Context, orgID string, reportDelta, lowAccuracyDelta int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO org_aggregates (org_id, report_count, low_accuracy_count, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(org_id) DO UPDATE SET
		   report_count = report_count + excluded.report_count,
		   low_accuracy_count = low_accuracy_count + excluded.low_accuracy_count,
		   updated_at = excluded.updated_at`,
		orgID, reportDelta, lowAccuracyDelta, fmtTime(time.Now().UTC()))
	return err
}

func (s *SQLiteStore) SetOrgAggregate(ctx context.Context, agg *models.OrganizationAggregate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO org_aggregates (org_id, report_count, low_accuracy_count, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(org_id) DO UPDATE SET
		   report_count = excluded.report_count,
		   low_accuracy_count = excluded.low_accuracy_count,
		   updated_at = excluded.updated_at`,
		agg.OrgID, agg.ReportCount, agg.LowAccuracyCount, fmtTime(agg.UpdatedAt))
	return err
}

// --- helpers ---

func checkAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.ConcurrentModificationError{Entity: entity, ID: id}
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
