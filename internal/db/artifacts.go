package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/field-discovery/internal/types"
)

// SaveRunResult stores a run's final schema and usage stats. Either
// save failing fails the whole persist, so a run is never marked
// completed with missing artifacts.
func (db *DB) SaveRunResult(ctx context.Context, runID uuid.UUID, schema types.Schema, stats *types.UsageStats) error {
	if err := db.SaveArtifact(ctx, runID, StepFinalSchema, CategoryLocation, schema); err != nil {
		return err
	}
	return db.SaveArtifact(ctx, runID, StepUsageStats, CategoryStats, stats)
}

// GetSchemaByRunID loads the final schema from the database for a run
func (db *DB) GetSchemaByRunID(ctx context.Context, runID uuid.UUID) (types.Schema, error) {
	content, err := db.GetArtifact(ctx, runID, StepFinalSchema)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}

	var schema types.Schema
	if err := json.Unmarshal(content, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return schema, nil
}

// GetStatsByRunID loads the usage stats from the database for a run
func (db *DB) GetStatsByRunID(ctx context.Context, runID uuid.UUID) (*types.UsageStats, error) {
	content, err := db.GetArtifact(ctx, runID, StepUsageStats)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}

	var stats types.UsageStats
	if err := json.Unmarshal(content, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal usage stats: %w", err)
	}
	return &stats, nil
}
