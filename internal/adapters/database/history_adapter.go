package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/repositories"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/postgres"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

const historyTable = "site_history"

const historySchema = `
CREATE TABLE IF NOT EXISTS site_history (
	id            UUID PRIMARY KEY,
	site          TEXT NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	report        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_site_history_site_recorded_at ON site_history (site, recorded_at DESC);
`

// HistoryAdapter implements HistoryRepository on PostgreSQL. Each report is
// one row keyed by site; the report body is stored as JSONB.
type HistoryAdapter struct {
	client    *postgres.Client
	db        *goqu.Database
	retention time.Duration
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewHistoryAdapter creates a new history adapter
func NewHistoryAdapter(client *postgres.Client, retentionDays int, metrics *observability.Metrics) *HistoryAdapter {
	if retentionDays <= 0 {
		retentionDays = repositories.DefaultRetentionDays
	}
	return &HistoryAdapter{
		client:    client,
		db:        goqu.New("postgres", client.DB()),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		metrics:   metrics,
		now:       time.Now,
	}
}

var _ repositories.HistoryRepository = (*HistoryAdapter)(nil)

// EnsureSchema creates the history table and index if they are missing
func (a *HistoryAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, historySchema); err != nil {
		return apperrors.NewInternalError("failed to create history schema", err)
	}
	return nil
}

func (a *HistoryAdapter) observe(ctx context.Context, op string, start time.Time) {
	observability.RecordHistoryMetric(ctx, a.metrics, op, time.Since(start))
}

// LoadTail returns up to n most recent snapshots, oldest first.
func (a *HistoryAdapter) LoadTail(ctx context.Context, siteURL string, n int) ([]entities.Snapshot, error) {
	defer a.observe(ctx, "load_tail", time.Now())

	records, err := a.recent(ctx, entities.SiteKey(siteURL), n)
	if err != nil {
		return nil, err
	}

	snapshots := make([]entities.Snapshot, len(records))
	for i := range records {
		// rows come newest first
		snapshots[len(records)-1-i] = records[i].Snapshot()
	}
	return snapshots, nil
}

func (a *HistoryAdapter) recent(ctx context.Context, site string, n int) ([]entities.HistoryRecord, error) {
	ds := a.db.From(historyTable).
		Prepared(true).
		Select("recorded_at", "report").
		Where(goqu.Ex{"site": site}).
		Order(goqu.I("recorded_at").Desc())
	if n > 0 {
		ds = ds.Limit(uint(n))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load history", err)
	}
	defer rows.Close()

	var records []entities.HistoryRecord
	for rows.Next() {
		record, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan history", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate history", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryRecord(row rowScanner) (*entities.HistoryRecord, error) {
	var (
		recordedAt time.Time
		body       []byte
	)
	if err := row.Scan(&recordedAt, &body); err != nil {
		return nil, err
	}

	record := &entities.HistoryRecord{Date: entities.NewTimestamp(recordedAt)}
	if err := json.Unmarshal(body, &record.Report); err != nil {
		log.Warn().Err(err).Time("recorded_at", recordedAt).Msg("Stored report body is not an object, keeping an empty report")
		record.Report = entities.Report{}
	}
	return record, nil
}

// Append inserts the record and prunes rows outside the retention window in
// the same transaction.
func (a *HistoryAdapter) Append(ctx context.Context, siteURL string, record *entities.HistoryRecord) error {
	defer a.observe(ctx, "append", time.Now())

	if record == nil {
		return apperrors.NewValidationError("history record is required")
	}
	site := entities.SiteKey(siteURL)

	recordedAt := record.Date.Time
	if recordedAt.IsZero() {
		recordedAt = a.now().UTC()
	}
	body, err := json.Marshal(record.Report)
	if err != nil {
		return apperrors.NewInternalError("failed to encode report", err)
	}

	insertSQL, insertArgs, err := a.db.Insert(historyTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":            uuid.NewString(),
			"site":          site,
			"recorded_at":   recordedAt,
			"overall_score": record.Snapshot().Scores.Overall,
			"report":        string(body),
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	cutoff := a.now().Add(-a.retention).UTC()
	deleteSQL, deleteArgs, err := a.db.Delete(historyTable).
		Prepared(true).
		Where(
			goqu.C("site").Eq(site),
			goqu.C("recorded_at").Lte(cutoff),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return apperrors.NewInternalError("failed to append history", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		return apperrors.NewInternalError("failed to prune history", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit history", err)
	}
	return nil
}

// Latest returns the most recent record for the site
func (a *HistoryAdapter) Latest(ctx context.Context, siteURL string) (*entities.HistoryRecord, error) {
	defer a.observe(ctx, "latest", time.Now())

	site := entities.SiteKey(siteURL)
	query, args, err := a.db.From(historyTable).
		Prepared(true).
		Select("recorded_at", "report").
		Where(goqu.Ex{"site": site}).
		Order(goqu.I("recorded_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record, err := scanHistoryRecord(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no reports found for %s", site))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get latest report", err)
	}
	return record, nil
}

// Count returns the number of stored records for the site
func (a *HistoryAdapter) Count(ctx context.Context, siteURL string) (int, error) {
	defer a.observe(ctx, "count", time.Now())

	query, args, err := a.db.From(historyTable).
		Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"site": entities.SiteKey(siteURL)}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count history", err)
	}
	return count, nil
}

// ListSites returns every site with stored history
func (a *HistoryAdapter) ListSites(ctx context.Context) ([]string, error) {
	defer a.observe(ctx, "list_sites", time.Now())

	query, args, err := a.db.From(historyTable).
		Prepared(true).
		Select("site").
		Distinct().
		Order(goqu.I("site").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sites", err)
	}
	defer rows.Close()

	sites := []string{}
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, apperrors.NewInternalError("failed to scan site", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sites", err)
	}
	return sites, nil
}
