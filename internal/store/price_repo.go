package store

import (
	"context"
	"database/sql"
	"time"

	"nordgrid/internal/models"
)

// PriceRepository persists day-ahead spot prices per bidding zone.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository returns repository.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert stores one quote, replacing any existing row with the same
// (zone, timestamp) key.
func (r *PriceRepository) Upsert(ctx context.Context, reading *models.PriceReading) error {
	if err := reading.Validate(); err != nil {
		return err
	}
	return r.exec(ctx, r.db, reading)
}

// UpsertBatch writes quotes inside one transaction. Invalid rows are skipped
// and reported back; they do not abort the batch.
func (r *PriceRepository) UpsertBatch(ctx context.Context, readings []models.PriceReading) (int, []error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, []error{&StoreError{Op: "price upsert batch", Err: err}}
	}
	defer tx.Rollback()

	written := 0
	var rowErrs []error
	for i := range readings {
		if err := readings[i].Validate(); err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		if err := r.exec(ctx, tx, &readings[i]); err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, append(rowErrs, &StoreError{Op: "price upsert batch", Err: err})
	}
	return written, rowErrs
}

func (r *PriceRepository) exec(ctx context.Context, ex execer, reading *models.PriceReading) error {
	const query = `
		INSERT OR REPLACE INTO price_readings (zone, timestamp, price)
		VALUES (?, ?, ?)
	`
	if _, err := ex.ExecContext(ctx, query, reading.Zone, reading.Timestamp.UTC(), reading.Price); err != nil {
		return &StoreError{Op: "price upsert", Err: err}
	}
	return nil
}

// Series reads prices for a zone since the given time, ascending.
func (r *PriceRepository) Series(ctx context.Context, zone models.Zone, since time.Time) ([]models.Point, error) {
	return r.query(ctx, `
		SELECT timestamp, price
		FROM price_readings
		WHERE zone = ? AND timestamp >= ?
		ORDER BY timestamp ASC
		LIMIT ?
	`, "price series", zone, since.UTC(), seriesLimit)
}

// Range reads prices for a zone in [from, to), ascending.
func (r *PriceRepository) Range(ctx context.Context, zone models.Zone, from, to time.Time) ([]models.Point, error) {
	return r.query(ctx, `
		SELECT timestamp, price
		FROM price_readings
		WHERE zone = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
		LIMIT ?
	`, "price range", zone, from.UTC(), to.UTC(), seriesLimit)
}

func (r *PriceRepository) query(ctx context.Context, query, op string, args ...any) ([]models.Point, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, &StoreError{Op: op, Err: err}
		}
		p.Timestamp = p.Timestamp.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return points, nil
}

// Latest returns the newest quote for a zone, or nil when none exist.
func (r *PriceRepository) Latest(ctx context.Context, zone models.Zone) (*models.PriceReading, error) {
	const query = `
		SELECT zone, timestamp, price
		FROM price_readings
		WHERE zone = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var p models.PriceReading
	err := r.db.QueryRowContext(ctx, query, zone).Scan(&p.Zone, &p.Timestamp, &p.Price)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "price latest", Err: err}
	}
	p.Timestamp = p.Timestamp.UTC()
	return &p, nil
}

// Prune deletes rows strictly older than the cutoff, returning the count removed.
func (r *PriceRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_readings WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, &StoreError{Op: "price prune", Err: err}
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "price prune", Err: err}
	}
	return removed, nil
}
