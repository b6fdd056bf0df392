package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/field-discovery/internal/cache"
	"github.com/jonathan/field-discovery/internal/llm"
	"github.com/jonathan/field-discovery/internal/types"
)

// stubClient returns canned responses keyed by a substring of the
// prompt, so each document gets its own extraction payload.
type stubClient struct {
	mu        sync.Mutex
	responses map[string]string // substring of user message -> response
	fallback  string
	err       error
	calls     int
}

func (s *stubClient) Invoke(_ context.Context, system, user string, _ llm.ModelTier) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	prompt := system + "\n" + user
	for marker, resp := range s.responses {
		if strings.Contains(prompt, marker) {
			return resp, nil
		}
	}
	return s.fallback, nil
}

func (s *stubClient) GetModel(tier llm.ModelTier) string { return "stub-model" }
func (s *stubClient) Close() error                       { return nil }

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func pad(s string, n int) string {
	for len(s) < n {
		s += " filler text to clear the minimum document size."
	}
	return s
}

func twoDocRequest() Request {
	return Request{
		Documents: []types.Document{
			{Filename: "A.md", Markdown: pad("# Notice\nThe Spring Fest takes place on May 5.", 50)},
			{Filename: "B.md", Markdown: pad("Join us for the Spring Fest at the Main Hall.", 50)},
		},
	}
}

func twoDocResponses() map[string]string {
	return map[string]string{
		"A.md": `{"event_name": {"label": "Event Name", "references": ["Spring Fest"]},
			"event_date": {"label": "Event Date", "references": ["May 5"]}}`,
		"B.md": `{"event_name": {"label": "Event Name", "references": ["Spring Fest"]},
			"venue": {"label": "Venue", "references": ["Main Hall"]}}`,
	}
}

func TestDiscoverEndToEnd(t *testing.T) {
	client := &stubClient{responses: twoDocResponses()}
	engine := NewEngine(client, cache.NewMemoryStore(), Options{})

	result, err := engine.Discover(context.Background(), twoDocRequest())
	require.NoError(t, err)
	require.NotNil(t, result.Schema)

	section := result.Schema[types.DocumentFieldsSection]
	require.NotNil(t, section, "document_fields section missing")

	event := section.Fields["event_name"]
	require.NotNil(t, event)
	assert.Equal(t, 2, event.DocFrequency, "event_name appears in both documents")
	assert.ElementsMatch(t, []string{"A.md", "B.md"}, event.SourceFiles)
	assert.NotEmpty(t, event.Locations, "references present in the text must index")

	assert.Equal(t, 2, result.Stats.DocsProcessed)
	assert.Equal(t, 3, result.Stats.TotalFields)
	assert.Equal(t, 1, result.Stats.SectionsCreated)
	assert.Equal(t, 2, result.Stats.Model.Summary.Calls)
	assert.Positive(t, result.Stats.TotalLocations)
	assert.False(t, result.Stats.CacheHit)
}

func TestDiscoverCacheHit(t *testing.T) {
	client := &stubClient{responses: twoDocResponses()}
	engine := NewEngine(client, cache.NewMemoryStore(), Options{})
	req := twoDocRequest()

	first, err := engine.Discover(context.Background(), req)
	require.NoError(t, err)
	callsAfterFirst := client.callCount()

	second, err := engine.Discover(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, client.callCount(), "cache hit must not invoke the model")
	assert.True(t, second.Stats.CacheHit)
	assert.Equal(t, 0.001, second.Stats.ProcessingTime)
	assert.Equal(t, first.Stats.TotalLocations, second.Stats.TotalLocations)
	assert.Equal(t, first.Schema, second.Schema)
}

func TestDiscoverInstructionsChangeFingerprint(t *testing.T) {
	client := &stubClient{responses: twoDocResponses()}
	engine := NewEngine(client, cache.NewMemoryStore(), Options{})

	req := twoDocRequest()
	_, err := engine.Discover(context.Background(), req)
	require.NoError(t, err)
	callsAfterFirst := client.callCount()

	req.UserInstructions = "focus on dates"
	_, err = engine.Discover(context.Background(), req)
	require.NoError(t, err)

	assert.Greater(t, client.callCount(), callsAfterFirst,
		"changed instructions must bypass the cache")
}

func TestDiscoverEmptyInput(t *testing.T) {
	client := &stubClient{}
	engine := NewEngine(client, cache.NewMemoryStore(), Options{})

	result, err := engine.Discover(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 0, client.callCount())
	assert.Equal(t, 0, result.Schema.TotalFields())
	assert.Equal(t, 0, result.Stats.TotalLocations)
}

func TestDiscoverSkipsShortDocuments(t *testing.T) {
	client := &stubClient{responses: twoDocResponses()}
	engine := NewEngine(client, nil, Options{})

	req := twoDocRequest()
	req.Documents = append(req.Documents, types.Document{Filename: "tiny.md", Markdown: "too short"})

	result, err := engine.Discover(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount())
	assert.Equal(t, 2, result.Stats.DocsProcessed)
}

func TestDiscoverSurvivesDocumentFailure(t *testing.T) {
	// B.md gets no matching marker and falls back to prose the parser
	// rejects: the call is still billed, the run still completes.
	client := &stubClient{
		responses: map[string]string{
			"A.md": `{"event_name": {"label": "Event Name", "references": ["Spring Fest"]}}`,
		},
		fallback: "I could not find any fields in this document.",
	}
	var failures []string
	engine := NewEngine(client, nil, Options{
		OnProgress: func(ev ProgressEvent) {
			if ev.Stage == StageExtraction && strings.Contains(ev.Message, "failed") {
				failures = append(failures, ev.Message)
			}
		},
	})

	result, err := engine.Discover(context.Background(), twoDocRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.DocsProcessed)
	assert.Equal(t, 2, result.Stats.Model.Summary.Calls, "unparsable responses still bill usage")
	assert.Len(t, failures, 1)
	require.NotNil(t, result.Schema[types.DocumentFieldsSection])
	assert.Contains(t, result.Schema[types.DocumentFieldsSection].Fields, "event_name")
}

func TestDiscoverAllCallsFail(t *testing.T) {
	client := &stubClient{err: errors.New("quota exceeded")}
	engine := NewEngine(client, nil, Options{})

	result, err := engine.Discover(context.Background(), twoDocRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.DocsProcessed)
	assert.Equal(t, 0, result.Stats.TotalFields)
}

func TestDiscoverConsolidationDegradesGracefully(t *testing.T) {
	responses := twoDocResponses()
	baseline := NewEngine(&stubClient{responses: responses}, nil, Options{})
	want, err := baseline.Discover(context.Background(), twoDocRequest())
	require.NoError(t, err)

	// The consolidation call carries no document marker, so it hits the
	// unparsable fallback and the merged schema must survive untouched.
	client := &stubClient{responses: responses, fallback: "not json"}
	engine := NewEngine(client, nil, Options{Consolidate: true})
	got, err := engine.Discover(context.Background(), twoDocRequest())
	require.NoError(t, err)

	assert.Equal(t, want.Schema, got.Schema)
	assert.Equal(t, 3, got.Stats.Model.Summary.Calls, "two extractions plus one consolidation")
}

func TestDiscoverConcurrentExtraction(t *testing.T) {
	client := &stubClient{responses: twoDocResponses()}
	engine := NewEngine(client, nil, Options{MaxConcurrent: 4})

	result, err := engine.Discover(context.Background(), twoDocRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.DocsProcessed)
	assert.Equal(t, 2, result.Stats.Model.Summary.Calls)
}

func TestRequestValidation(t *testing.T) {
	req := Request{Documents: []types.Document{{Filename: ""}}}
	engine := NewEngine(&stubClient{}, nil, Options{})
	_, err := engine.Discover(context.Background(), req)
	assert.Error(t, err, "documents without filenames are rejected")
}
