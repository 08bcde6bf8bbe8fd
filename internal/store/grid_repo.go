package store

import (
	"context"
	"database/sql"
	"time"

	"nordgrid/internal/models"
)

// seriesLimit caps any single series read; at the 5-minute ingest cadence this
// covers well over the maximum query window.
const seriesLimit = 100000

// GridRepository persists country-level grid readings.
type GridRepository struct {
	db *sql.DB
}

// NewGridRepository returns repository.
func NewGridRepository(db *sql.DB) *GridRepository {
	return &GridRepository{db: db}
}

// Upsert stores one reading, replacing any existing row with the same
// (country, timestamp) key. Rows failing validation are rejected before any
// statement runs.
func (r *GridRepository) Upsert(ctx context.Context, reading *models.GridReading) error {
	if err := reading.Validate(); err != nil {
		return err
	}
	return r.exec(ctx, r.db, reading)
}

// UpsertBatch writes readings inside one transaction. Invalid rows are skipped
// and reported back; they do not abort the batch.
func (r *GridRepository) UpsertBatch(ctx context.Context, readings []models.GridReading) (int, []error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, []error{&StoreError{Op: "grid upsert batch", Err: err}}
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
		return 0, append(rowErrs, &StoreError{Op: "grid upsert batch", Err: err})
	}
	return written, rowErrs
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *GridRepository) exec(ctx context.Context, ex execer, reading *models.GridReading) error {
	const query = `
		INSERT OR REPLACE INTO grid_readings
		(country, timestamp, production, consumption, import_value, export_value,
		 nuclear, hydro, wind, thermal, not_specified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ex.ExecContext(ctx, query,
		reading.Country,
		reading.Timestamp.UTC(),
		reading.Production,
		reading.Consumption,
		reading.ImportValue,
		reading.ExportValue,
		reading.Nuclear,
		reading.Hydro,
		reading.Wind,
		reading.Thermal,
		reading.NotSpecified,
	)
	if err != nil {
		return &StoreError{Op: "grid upsert", Err: err}
	}
	return nil
}

var metricColumns = map[models.Metric]string{
	models.MetricProduction:  "production",
	models.MetricConsumption: "consumption",
	models.MetricImport:      "import_value",
	models.MetricExport:      "export_value",
}

// Series reads one metric for a country since the given time, ascending.
func (r *GridRepository) Series(ctx context.Context, country models.Country, metric models.Metric, since time.Time) ([]models.Point, error) {
	column, ok := metricColumns[metric]
	if !ok {
		return nil, &models.ValidationError{Field: "metric", Value: string(metric)}
	}

	query := `
		SELECT timestamp, ` + column + `
		FROM grid_readings
		WHERE country = ? AND timestamp >= ?
		ORDER BY timestamp ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, country, since.UTC(), seriesLimit)
	if err != nil {
		return nil, &StoreError{Op: "grid series", Err: err}
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, &StoreError{Op: "grid series", Err: err}
		}
		p.Timestamp = p.Timestamp.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "grid series", Err: err}
	}
	return points, nil
}

// TypeSeries reads full readings for a country since the given time, ascending.
func (r *GridRepository) TypeSeries(ctx context.Context, country models.Country, since time.Time) ([]models.GridReading, error) {
	const query = `
		SELECT country, timestamp, production, consumption, import_value, export_value,
		       nuclear, hydro, wind, thermal, not_specified
		FROM grid_readings
		WHERE country = ? AND timestamp >= ?
		ORDER BY timestamp ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, country, since.UTC(), seriesLimit)
	if err != nil {
		return nil, &StoreError{Op: "grid type series", Err: err}
	}
	defer rows.Close()

	var readings []models.GridReading
	for rows.Next() {
		var g models.GridReading
		if err := rows.Scan(&g.Country, &g.Timestamp, &g.Production, &g.Consumption,
			&g.ImportValue, &g.ExportValue, &g.Nuclear, &g.Hydro, &g.Wind, &g.Thermal, &g.NotSpecified); err != nil {
			return nil, &StoreError{Op: "grid type series", Err: err}
		}
		g.Timestamp = g.Timestamp.UTC()
		readings = append(readings, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "grid type series", Err: err}
	}
	return readings, nil
}

// HourlyTypeSeries averages one energy type per whole UTC hour, ascending.
// Grid rows land at minute resolution while prices are hourly, so correlation
// joins on these hour buckets.
func (r *GridRepository) HourlyTypeSeries(ctx context.Context, country models.Country, energyType models.EnergyType, since time.Time) ([]models.Point, error) {
	column := ""
	switch energyType {
	case models.EnergyNuclear:
		column = "nuclear"
	case models.EnergyHydro:
		column = "hydro"
	case models.EnergyWind:
		column = "wind"
	case models.EnergyThermal:
		column = "thermal"
	case models.EnergyNotSpecified:
		column = "not_specified"
	default:
		return nil, &models.ValidationError{Field: "energy_type", Value: string(energyType)}
	}

	query := `
		SELECT strftime('%Y-%m-%dT%H:00:00Z', timestamp) AS hour, AVG(` + column + `)
		FROM grid_readings
		WHERE country = ? AND timestamp >= ?
		GROUP BY hour
		ORDER BY hour ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, country, since.UTC(), seriesLimit)
	if err != nil {
		return nil, &StoreError{Op: "grid hourly series", Err: err}
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var hour string
		var p models.Point
		if err := rows.Scan(&hour, &p.Value); err != nil {
			return nil, &StoreError{Op: "grid hourly series", Err: err}
		}
		ts, err := time.Parse(time.RFC3339, hour)
		if err != nil {
			return nil, &StoreError{Op: "grid hourly series", Err: err}
		}
		p.Timestamp = ts
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "grid hourly series", Err: err}
	}
	return points, nil
}

// Latest returns the newest reading for a country, or nil when none exist.
func (r *GridRepository) Latest(ctx context.Context, country models.Country) (*models.GridReading, error) {
	const query = `
		SELECT country, timestamp, production, consumption, import_value, export_value,
		       nuclear, hydro, wind, thermal, not_specified
		FROM grid_readings
		WHERE country = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var g models.GridReading
	err := r.db.QueryRowContext(ctx, query, country).Scan(&g.Country, &g.Timestamp,
		&g.Production, &g.Consumption, &g.ImportValue, &g.ExportValue,
		&g.Nuclear, &g.Hydro, &g.Wind, &g.Thermal, &g.NotSpecified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "grid latest", Err: err}
	}
	g.Timestamp = g.Timestamp.UTC()
	return &g, nil
}

// Stats reports total row count and the newest timestamp.
func (r *GridRepository) Stats(ctx context.Context) (int64, *time.Time, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grid_readings`).Scan(&count); err != nil {
		return 0, nil, &StoreError{Op: "grid stats", Err: err}
	}

	var newest time.Time
	err := r.db.QueryRowContext(ctx, `SELECT timestamp FROM grid_readings ORDER BY timestamp DESC LIMIT 1`).Scan(&newest)
	if err == sql.ErrNoRows {
		return count, nil, nil
	}
	if err != nil {
		return 0, nil, &StoreError{Op: "grid stats", Err: err}
	}
	ts := newest.UTC()
	return count, &ts, nil
}

// Prune deletes rows strictly older than the cutoff, returning the count removed.
func (r *GridRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grid_readings WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, &StoreError{Op: "grid prune", Err: err}
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "grid prune", Err: err}
	}
	return removed, nil
}
