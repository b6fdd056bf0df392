// Package consolidation merges fields that name the same real-world fact
// under one canonical key, using a second model pass.
package consolidation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/field-discovery/internal/llm"
	"github.com/jonathan/field-discovery/internal/merge"
	"github.com/jonathan/field-discovery/internal/prompts"
	"github.com/jonathan/field-discovery/internal/tokens"
	"github.com/jonathan/field-discovery/internal/types"
)

// compactPayload is the reduced structure sent to the model: field keys
// and their references only, to keep the prompt small.
type compactPayload struct {
	Fields map[string][]string `json:"fields"`
}

// Consolidate issues one model call asking it to merge semantically
// identical fields. On any model or parse failure the input schema is
// returned unchanged together with the error, so the caller can log the
// degradation and continue. Provenance (source files, approximate doc
// frequency) is reconstructed by scanning which original fields
// contributed each canonical reference.
func Consolidate(ctx context.Context, client llm.Client, schema types.Schema) (types.Schema, *types.CallStats, error) {
	section := schema.DocumentFields()
	if section == nil || len(section.Fields) == 0 {
		return schema, nil, nil
	}

	payload := compactPayload{Fields: make(map[string][]string, len(section.Fields))}
	for key, field := range section.Fields {
		if len(field.References) == 0 {
			continue
		}
		payload.Fields[key] = field.References
	}
	fieldsJSON, err := json.Marshal(payload)
	if err != nil {
		return schema, nil, fmt.Errorf("failed to encode fields payload: %w", err)
	}

	system := prompts.Format(prompts.MustGet("discovery.json", "consolidate-fields"), map[string]string{
		"FieldsJSON": string(fieldsJSON),
	})
	const user = "Return only the consolidated JSON."

	call := &types.CallStats{
		Timestamp:   time.Now(),
		InputTokens: tokens.Count(system),
		PromptChars: len(system),
	}

	raw, err := client.Invoke(ctx, system, user, llm.TierAdvanced)
	if err != nil {
		return schema, nil, fmt.Errorf("consolidation call failed: %w", err)
	}
	call.OutputTokens = tokens.Count(raw)

	jsonText, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return schema, call, fmt.Errorf("consolidation response unusable: %w", err)
	}

	var canonical map[string]*types.RawField
	if err := json.Unmarshal([]byte(jsonText), &canonical); err != nil {
		return schema, call, fmt.Errorf("consolidation response unusable: %w", err)
	}

	rebuild(section, canonical)
	return schema, call, nil
}

// rebuild replaces the section's fields with the canonical set,
// restoring provenance from the pre-consolidation fields.
func rebuild(section *types.Section, canonical map[string]*types.RawField) {
	original := section.Fields
	originalKeys := make([]string, 0, len(original))
	for key := range original {
		originalKeys = append(originalKeys, key)
	}
	sort.Strings(originalKeys)

	fields := make(map[string]*types.Field, len(canonical))
	keyOrder := make([]string, 0, len(canonical))

	for key, raw := range canonical {
		if raw == nil {
			continue
		}
		label := raw.Label
		if label == "" {
			label = labelFromKey(key)
		}

		field := &types.Field{Label: label, References: raw.References}
		for _, origKey := range originalKeys {
			origField := original[origKey]
			if !sharesReference(origField.References, raw.References) {
				continue
			}
			field.DocFrequency++
			for _, sf := range origField.SourceFiles {
				if !containsString(field.SourceFiles, sf) {
					field.SourceFiles = append(field.SourceFiles, sf)
				}
			}
		}
		fields[key] = field
		keyOrder = append(keyOrder, key)
	}
	sort.Strings(keyOrder)

	section.Fields = fields
	section.FieldOrder = merge.OrderFields(fields, keyOrder)
}

// labelFromKey turns a snake_case key into a display label.
func labelFromKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sharesReference(haystack, needles []string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, ref := range haystack {
		set[ref] = struct{}{}
	}
	for _, ref := range needles {
		if _, ok := set[ref]; ok {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
