// Package discovery provides the high-level orchestration for the field
// schema discovery process.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/field-discovery/internal/cache"
	"github.com/jonathan/field-discovery/internal/consolidation"
	"github.com/jonathan/field-discovery/internal/extraction"
	"github.com/jonathan/field-discovery/internal/fingerprint"
	"github.com/jonathan/field-discovery/internal/llm"
	"github.com/jonathan/field-discovery/internal/locate"
	"github.com/jonathan/field-discovery/internal/merge"
	"github.com/jonathan/field-discovery/internal/types"
)

// Pipeline stage names reported through progress events.
const (
	StageCache         = "cache"
	StageExtraction    = "extraction"
	StageMerge         = "merge"
	StageConsolidation = "consolidation"
	StageLocation      = "location"
)

// cacheHitProcessingTime is the nominal processing time reported for a
// run served entirely from cache.
const cacheHitProcessingTime = 0.001

// defaultCallTimeout bounds one model call when Options.CallTimeout is
// unset. Expiry counts as an extraction failure for that document only.
const defaultCallTimeout = 2 * time.Minute

// ProgressEvent represents a progress update during discovery execution
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when discovery progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for a discovery engine.
type Options struct {
	Consolidate    bool          // run the model-backed consolidation pass
	MaxConcurrent  int           // parallel extraction calls, 0 means sequential
	CallTimeout    time.Duration // per-document model call timeout, 0 means defaultCallTimeout
	TTL            time.Duration // cache entry lifetime, 0 means cache.DefaultTTL
	FuzzyThreshold int           // reference dedupe similarity, 0 means dedupe default
	ValidateShape  bool          // JSON Schema validation on extraction responses
	OnProgress     ProgressCallback
}

// Request is one discovery invocation: a document set plus optional
// extraction guidance. An empty document list is valid and produces an
// empty schema.
type Request struct {
	Documents        []types.Document `validate:"dive"`
	DocPaths         []string
	UserInstructions string
}

// Validate checks the request's documents for structural problems.
func (r *Request) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Result is the discovered schema together with the run's usage stats.
type Result struct {
	Fingerprint string            `json:"fingerprint"`
	Schema      types.Schema      `json:"schema"`
	Stats       *types.UsageStats `json:"stats"`
}

// Engine runs the discovery pipeline: per-document field extraction,
// cross-document merge, optional consolidation, and location indexing,
// fronted by a fingerprint-keyed cache.
type Engine struct {
	client llm.Client
	store  cache.Store
	opts   Options
}

// NewEngine builds an engine. store may be nil to disable caching
// entirely; client must be non-nil unless every request is a cache hit.
func NewEngine(client llm.Client, store cache.Store, opts Options) *Engine {
	return &Engine{client: client, store: store, opts: opts}
}

func (e *Engine) emitProgress(stage, message string, content any) {
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(ProgressEvent{
			Stage:   stage,
			Message: message,
			Content: content,
		})
	}
}

// Discover executes the full pipeline for one request. Per-document
// extraction failures are reported through progress events and skipped;
// a consolidation failure leaves the merged schema untouched. Both keep
// any usage already billed.
func (e *Engine) Discover(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid discovery request: %w", err)
	}

	start := time.Now()
	stats := types.NewUsageStats()
	for _, doc := range req.Documents {
		stats.TotalCharsProcessed += len(doc.Markdown)
	}

	fp := fingerprint.Compute(req.Documents, req.DocPaths, req.UserInstructions)

	if e.store != nil {
		if rec, ok := e.store.Get(ctx, fp); ok {
			e.emitProgress(StageCache, "Serving schema from cache", nil)
			// Synthesized stats for a trivial run: only the cached
			// location count carries forward.
			hit := types.NewUsageStats()
			hit.CacheHit = true
			hit.ProcessingTime = cacheHitProcessingTime
			hit.TotalLocations = rec.Stats.TotalLocations
			return &Result{Fingerprint: fp, Schema: rec.Schema, Stats: hit}, nil
		}
	}

	partials, err := e.extractAll(ctx, req, stats)
	if err != nil {
		return nil, err
	}

	mergeStart := time.Now()
	schema := merge.Merge(partials)
	stats.MergeTime = time.Since(mergeStart).Seconds()
	for _, p := range partials {
		if p != nil {
			stats.DocsProcessed++
		}
	}
	stats.SectionsCreated = len(schema)
	stats.TotalFields = schema.TotalFields()
	e.emitProgress(StageMerge, fmt.Sprintf("Merged %d documents into %d fields",
		stats.DocsProcessed, stats.TotalFields), nil)

	if e.opts.Consolidate {
		consolidated, call, err := consolidation.Consolidate(ctx, e.client, schema)
		if call != nil {
			stats.RecordCall(*call)
		}
		if err != nil {
			e.emitProgress(StageConsolidation,
				fmt.Sprintf("Consolidation failed, keeping merged schema: %v", err), nil)
		} else {
			schema = consolidated
			stats.TotalFields = schema.TotalFields()
			e.emitProgress(StageConsolidation,
				fmt.Sprintf("Consolidated to %d fields", stats.TotalFields), nil)
		}
	}

	stats.TotalLocations = locate.Index(schema, req.Documents, req.DocPaths)
	e.emitProgress(StageLocation,
		fmt.Sprintf("Indexed %d locations", stats.TotalLocations), nil)

	stats.ProcessingTime = time.Since(start).Seconds()

	if e.store != nil {
		ttl := e.opts.TTL
		if ttl <= 0 {
			ttl = cache.DefaultTTL
		}
		e.store.Put(ctx, fp, &cache.Record{
			Fingerprint: fp,
			Schema:      schema,
			Stats:       *stats,
		}, ttl)
	}

	return &Result{Fingerprint: fp, Schema: schema, Stats: stats}, nil
}

// extractAll runs per-document extraction, bounded by MaxConcurrent.
// The returned slice is index-aligned with req.Documents; skipped or
// failed documents leave a nil entry.
func (e *Engine) extractAll(ctx context.Context, req Request, stats *types.UsageStats) ([]types.PartialSchema, error) {
	partials := make([]types.PartialSchema, len(req.Documents))

	limit := e.opts.MaxConcurrent
	if limit < 1 {
		limit = 1
	}

	extractOpts := extraction.Options{
		UserInstructions: req.UserInstructions,
		FuzzyThreshold:   e.opts.FuzzyThreshold,
		ValidateShape:    e.opts.ValidateShape,
	}

	timeout := e.opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	var mu sync.Mutex

	for i, doc := range req.Documents {
		i, doc := i, doc
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gCtx, timeout)
			defer cancel()

			partial, call, err := extraction.Extract(callCtx, e.client, doc, extractOpts)

			mu.Lock()
			defer mu.Unlock()
			if call != nil {
				stats.RecordCall(*call)
			}
			if err != nil {
				e.emitProgress(StageExtraction,
					fmt.Sprintf("Extraction failed for %s: %v", doc.Filename, err), nil)
				return nil
			}
			if partial != nil {
				partials[i] = partial
				e.emitProgress(StageExtraction,
					fmt.Sprintf("Extracted %d fields from %s", len(partial), doc.Filename), nil)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}
