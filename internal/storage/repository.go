package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/reference"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrNotFound indicates the requested analysis does not exist.
	ErrNotFound = errors.New("storage: analysis not found")
)

const (
	insertAnalysisSQL = `INSERT INTO analyses (
        id,
        pod,
        period_start,
        period_end,
        invoice_total,
        best_saving,
        payload
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (id) DO UPDATE
    SET
        pod           = EXCLUDED.pod,
        period_start  = EXCLUDED.period_start,
        period_end    = EXCLUDED.period_end,
        invoice_total = EXCLUDED.invoice_total,
        best_saving   = EXCLUDED.best_saving,
        payload       = EXCLUDED.payload;`

	selectAnalysisColumns = `SELECT
        id::text,
        pod,
        period_start,
        period_end,
        invoice_total::text,
        best_saving::text,
        payload,
        created_at
    FROM analyses`

	getAnalysisSQL = selectAnalysisColumns + `
    WHERE id = $1;`

	listRecentAnalysesSQL = selectAnalysisColumns + `
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAnalysisSQL = `DELETE FROM analyses WHERE id = $1;`
	clearAnalysesSQL  = `DELETE FROM analyses;`
	countAnalysesSQL  = `SELECT COUNT(*) FROM analyses;`

	upsertPriceSQL = `INSERT INTO commodity_prices (
        price_date,
        eur_per_kwh
    ) VALUES (
        $1,$2
    )
    ON CONFLICT (price_date) DO UPDATE
    SET eur_per_kwh = EXCLUDED.eur_per_kwh;`

	listPricesBetweenSQL = `SELECT
        price_date,
        eur_per_kwh::text
    FROM commodity_prices
    WHERE price_date >= $1
      AND price_date <= $2
    ORDER BY price_date;`

	insertAlertSQL = `INSERT INTO alerts (
        analysis_id,
        pod,
        saving_eur,
        threshold_eur,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (analysis_id) DO UPDATE
    SET saving_eur    = EXCLUDED.saving_eur,
        threshold_eur = EXCLUDED.threshold_eur,
        channels      = EXCLUDED.channels
    RETURNING id, analysis_id::text, pod, saving_eur::text, threshold_eur::text, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        analysis_id::text,
        pod,
        saving_eur::text,
        threshold_eur::text,
        channels,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// AnalysisStore keeps the analysis history.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, rec AnalysisRecord) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (AnalysisRecord, error)
	ListRecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, id uuid.UUID) error
	ClearAnalyses(ctx context.Context) (int64, error)
	CountAnalyses(ctx context.Context) (int64, error)
}

// PriceStore persists daily commodity prices.
type PriceStore interface {
	reference.PriceSource
	UpsertPrices(ctx context.Context, points []reference.PricePoint) error
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to analyses, prices and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// best effort, the session lock is dropped with the connection anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// SaveAnalysis persists or replaces an analysis.
func (s *Store) SaveAnalysis(ctx context.Context, rec AnalysisRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, execErr := pool.Exec(ctx, insertAnalysisSQL,
		rec.ID.String(),
		rec.POD,
		rec.PeriodStart,
		rec.PeriodEnd,
		rec.InvoiceTotal.String(),
		rec.BestSaving.String(),
		[]byte(rec.Payload),
	)
	if execErr != nil {
		return fmt.Errorf("save analysis: %w", execErr)
	}
	return nil
}

// GetAnalysis loads one analysis by id.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (AnalysisRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AnalysisRecord{}, err
	}
	rows, queryErr := pool.Query(ctx, getAnalysisSQL, id.String())
	if queryErr != nil {
		return AnalysisRecord{}, fmt.Errorf("get analysis: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return AnalysisRecord{}, rows.Err()
		}
		return AnalysisRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return scanAnalysis(rows)
}

// ListRecentAnalyses lists the newest analyses first.
func (s *Store) ListRecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAnalysesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent analyses: %w", queryErr)
	}
	defer rows.Close()

	records := make([]AnalysisRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAnalysis(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// DeleteAnalysis removes one analysis.
func (s *Store) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteAnalysisSQL, id.String())
	if execErr != nil {
		return fmt.Errorf("delete analysis: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ClearAnalyses removes the whole history and reports how many rows went.
func (s *Store) ClearAnalyses(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, clearAnalysesSQL)
	if execErr != nil {
		return 0, fmt.Errorf("clear analyses: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

// CountAnalyses counts stored analyses.
func (s *Store) CountAnalyses(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countAnalysesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count analyses: %w", scanErr)
	}
	return count, nil
}

// UpsertPrices stores daily prices in a single batch.
func (s *Store) UpsertPrices(ctx context.Context, points []reference.PricePoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(upsertPriceSQL, p.Date.Time, p.EURPerKWh.String())
	}
	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert commodity price: %w", execErr)
		}
	}
	return nil
}

// CommodityPrices lists stored prices within [from, to].
func (s *Store) CommodityPrices(ctx context.Context, from, to billing.Date) ([]reference.PricePoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPricesBetweenSQL, from.Time, to.Time)
	if queryErr != nil {
		return nil, fmt.Errorf("list commodity prices: %w", queryErr)
	}
	defer rows.Close()

	points := make([]reference.PricePoint, 0)
	for rows.Next() {
		var (
			day      time.Time
			priceStr string
		)
		if err := rows.Scan(&day, &priceStr); err != nil {
			return nil, err
		}
		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse commodity price: %w", convErr)
		}
		points = append(points, reference.PricePoint{Date: billing.DateOf(day), EURPerKWh: price})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.AnalysisID.String(),
		alert.POD,
		alert.SavingEUR.String(),
		alert.ThresholdEUR.String(),
		alert.Channels,
	)
	rec, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanAnalysis(row pgx.Row) (AnalysisRecord, error) {
	var (
		idStr      string
		pod        string
		start, end time.Time
		totalStr   string
		savingStr  string
		payload    []byte
		createdAt  time.Time
	)
	if err := row.Scan(&idStr, &pod, &start, &end, &totalStr, &savingStr, &payload, &createdAt); err != nil {
		return AnalysisRecord{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("parse analysis id: %w", err)
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("parse invoice total: %w", err)
	}
	saving, err := decimal.NewFromString(savingStr)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("parse best saving: %w", err)
	}

	return AnalysisRecord{
		ID:           id,
		POD:          pod,
		PeriodStart:  start,
		PeriodEnd:    end,
		InvoiceTotal: total,
		BestSaving:   saving,
		Payload:      payload,
		CreatedAt:    createdAt,
	}, nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var (
		rec          AlertRecord
		idStr        string
		savingStr    string
		thresholdStr string
	)
	if err := row.Scan(
		&rec.ID,
		&idStr,
		&rec.POD,
		&savingStr,
		&thresholdStr,
		&rec.Channels,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var convErr error
	if rec.AnalysisID, convErr = uuid.Parse(idStr); convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse analysis id: %w", convErr)
	}
	if rec.SavingEUR, convErr = decimal.NewFromString(savingStr); convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse saving: %w", convErr)
	}
	if rec.ThresholdEUR, convErr = decimal.NewFromString(thresholdStr); convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse threshold: %w", convErr)
	}
	return rec, nil
}

var (
	_ AnalysisStore  = (*Store)(nil)
	_ PriceStore     = (*Store)(nil)
	_ AlertStore     = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
