package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a discovery run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Fingerprint string     `json:"fingerprint"`
	DocCount    int        `json:"doc_count"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ArtifactStep constants for known artifact types
const (
	StepRawExtraction      = "raw_extraction"
	StepMergedSchema       = "merged_schema"
	StepConsolidatedSchema = "consolidated_schema"
	StepFinalSchema        = "final_schema"
	StepUsageStats         = "usage_stats"
)

// Artifact category constants grouping steps by pipeline phase
const (
	CategoryExtraction    = "extraction"
	CategoryMerge         = "merge"
	CategoryConsolidation = "consolidation"
	CategoryLocation      = "location"
	CategoryStats         = "stats"
)
