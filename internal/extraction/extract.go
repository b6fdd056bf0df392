// Package extraction turns one document into a raw per-document field set via a single model call.
package extraction

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/jonathan/field-discovery/internal/dedupe"
	"github.com/jonathan/field-discovery/internal/llm"
	"github.com/jonathan/field-discovery/internal/prompts"
	"github.com/jonathan/field-discovery/internal/schemas"
	"github.com/jonathan/field-discovery/internal/tokens"
	"github.com/jonathan/field-discovery/internal/types"
)

const (
	// MinDocumentChars is the least document length worth a model call;
	// anything shorter carries too little signal to extract from.
	MinDocumentChars = 50
	// MaxPromptChars caps how much document text is sent per call.
	MaxPromptChars = 8000
)

// Options tunes per-document extraction.
type Options struct {
	UserInstructions string
	FuzzyThreshold   int           // 0 means dedupe.DefaultThreshold
	ValidateShape    bool          // run JSON Schema validation on the parsed response
	Tier             llm.ModelTier // "" means TierStandard
}

// Extract issues one model call for doc and post-processes the response
// into a raw field set. The returned CallStats is non-nil whenever a
// model interaction actually happened, so usage is billed even when the
// response turns out to be unusable. Return contract:
//
//   - document skipped (too short): (nil, nil, nil)
//   - model call failed:            (nil, nil, *ModelCallError)
//   - unusable response:            (nil, stats, *ParseError)
//   - success:                      (fields, stats, nil)
func Extract(ctx context.Context, client llm.Client, doc types.Document, opts Options) (types.PartialSchema, *types.CallStats, error) {
	if len(doc.Markdown) < MinDocumentChars {
		return nil, nil, nil
	}

	content := truncateRuneSafe(doc.Markdown, MaxPromptChars)

	system := prompts.Format(prompts.MustGet("discovery.json", "extract-fields"), map[string]string{
		"Filename":         doc.Filename,
		"UserInstructions": opts.UserInstructions,
	})
	combined := system + "\n\n" + content

	tier := opts.Tier
	if tier == "" {
		tier = llm.TierStandard
	}

	call := &types.CallStats{
		Timestamp:   time.Now(),
		InputTokens: tokens.Count(combined),
		PromptChars: len(combined),
	}

	raw, err := client.Invoke(ctx, system, content, tier)
	if err != nil {
		return nil, nil, &ModelCallError{Filename: doc.Filename, Cause: err}
	}
	call.OutputTokens = tokens.Count(raw)

	fields, err := parseExtraction(raw, doc.Filename, opts)
	if err != nil {
		return nil, call, err
	}
	return fields, call, nil
}

// truncateRuneSafe cuts s to at most max bytes without splitting a
// multibyte rune; the model transport rejects invalid UTF-8 prompts.
func truncateRuneSafe(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseExtraction converts the model's raw text into a PartialSchema.
func parseExtraction(raw, filename string, opts Options) (types.PartialSchema, error) {
	jsonText, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, &ParseError{Filename: filename, Message: "no JSON object in response", Cause: err}
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &root); err != nil {
		return nil, &ParseError{Filename: filename, Message: "response is not a JSON object", Cause: err}
	}

	// Some models answer with a JSON Schema document instead of a flat
	// field object; unwrap its properties block.
	if _, ok := root["$schema"]; ok {
		props, ok := root["properties"]
		if !ok {
			return nil, &ParseError{Filename: filename, Message: "schema-style response without properties"}
		}
		unwrapped := map[string]json.RawMessage{}
		if err := json.Unmarshal(props, &unwrapped); err != nil {
			return nil, &ParseError{Filename: filename, Message: "schema-style response with non-object properties", Cause: err}
		}
		root = unwrapped
	}

	if opts.ValidateShape {
		normalized, err := json.Marshal(root)
		if err != nil {
			return nil, &ParseError{Filename: filename, Message: "failed to normalize response", Cause: err}
		}
		if err := schemas.ValidateRawExtraction(string(normalized)); err != nil {
			return nil, &ParseError{Filename: filename, Message: "response shape rejected", Cause: err}
		}
	}

	threshold := opts.FuzzyThreshold
	if threshold == 0 {
		threshold = dedupe.DefaultThreshold
	}

	fields := make(types.PartialSchema, len(root))
	for key, value := range root {
		var field types.RawField
		if err := json.Unmarshal(value, &field); err != nil {
			// Tolerate stray non-field values; the rest of the
			// extraction is still usable.
			continue
		}
		refs := dedupe.ExactReferences(field.References)
		refs = dedupe.FuzzyReferences(refs, threshold)
		field.References = refs
		field.SourceFilename = filename
		fields[key] = &field
	}
	return fields, nil
}
