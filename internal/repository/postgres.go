package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UnknownOlympus/geobatch/internal/models"
)

const schemaQuery = `
	CREATE TABLE IF NOT EXISTS geocode_results (
		batch_id         TEXT NOT NULL,
		row_number       INTEGER NOT NULL,
		address          TEXT NOT NULL,
		status           TEXT NOT NULL,
		full_address     TEXT,
		score            INTEGER,
		match_precision  TEXT,
		precision_points INTEGER,
		faults           JSONB,
		x                DOUBLE PRECISION,
		y                DOUBLE PRECISION,
		error            TEXT,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (batch_id, row_number)
	);
`

const saveResultQuery = `
	INSERT INTO geocode_results (
		batch_id, row_number, address, status, full_address, score,
		match_precision, precision_points, faults, x, y, error, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, now())
	ON CONFLICT (batch_id, row_number) DO UPDATE SET
		address = EXCLUDED.address,
		status = EXCLUDED.status,
		full_address = EXCLUDED.full_address,
		score = EXCLUDED.score,
		match_precision = EXCLUDED.match_precision,
		precision_points = EXCLUDED.precision_points,
		faults = EXCLUDED.faults,
		x = EXCLUDED.x,
		y = EXCLUDED.y,
		error = NULL,
		updated_at = now();
`

const saveFailureQuery = `
	INSERT INTO geocode_results (batch_id, row_number, address, status, error, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (batch_id, row_number) DO UPDATE SET
		address = EXCLUDED.address,
		status = EXCLUDED.status,
		full_address = NULL,
		score = NULL,
		match_precision = NULL,
		precision_points = NULL,
		faults = NULL,
		x = NULL,
		y = NULL,
		error = EXCLUDED.error,
		updated_at = now();
`

// EnsureSchema creates the results table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaQuery); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}

	return nil
}

// SaveResult stores the match of a row, replacing whatever the row held before.
func (r *Repository) SaveResult(
	ctx context.Context,
	batchID string,
	rowNumber int,
	address string,
	result *models.GeocodeResult,
) error {
	faults, err := json.Marshal(result.Faults)
	if err != nil {
		return fmt.Errorf("failed to encode faults: %w", err)
	}

	_, err = r.db.Exec(ctx, saveResultQuery,
		batchID, rowNumber, address, string(models.StatusSuccess), result.FullAddress, result.Score,
		result.MatchPrecision, result.PrecisionPoints, string(faults), result.Coordinates.X, result.Coordinates.Y,
	)
	if err != nil {
		return fmt.Errorf("failed to save geocode result: %w", err)
	}

	r.log.DebugContext(ctx, "Geocode result saved", "batch", batchID, "row", rowNumber)

	return nil
}

// SaveFailure stores the error of a row whose retries are exhausted.
func (r *Repository) SaveFailure(ctx context.Context, batchID string, rowNumber int, address, errMsg string) error {
	_, err := r.db.Exec(ctx, saveFailureQuery, batchID, rowNumber, address, string(models.StatusFailed), errMsg)
	if err != nil {
		return fmt.Errorf("failed to save geocode failure: %w", err)
	}

	return nil
}
