// Package merge folds per-document field sets into one working schema.
package merge

import (
	"sort"

	"github.com/jonathan/field-discovery/internal/types"
)

// Merge unions the per-document partial field sets into a single
// sectioned schema. References are unioned as exact sets, so the final
// reference set per key does not depend on document order; the field
// ordering does depend on the aggregate counts and is computed only
// after the full fold.
func Merge(partials []types.PartialSchema) types.Schema {
	section := &types.Section{
		Label:  "Document Fields",
		Fields: make(map[string]*types.Field),
	}
	merged := types.Schema{types.DocumentFieldsSection: section}

	var keyOrder []string
	for _, partial := range partials {
		if partial == nil {
			continue
		}
		section.DocFrequency++

		for _, key := range sortedKeys(partial) {
			raw := partial[key]
			if raw == nil {
				continue
			}
			field, ok := section.Fields[key]
			if !ok {
				field = &types.Field{Label: raw.Label}
				section.Fields[key] = field
				keyOrder = append(keyOrder, key)
			}

			field.References = unionReferences(field.References, raw.References)
			field.DocFrequency++

			if raw.SourceFilename != "" && !contains(field.SourceFiles, raw.SourceFilename) {
				field.SourceFiles = append(field.SourceFiles, raw.SourceFilename)
			}
		}
	}

	section.FieldOrder = OrderFields(section.Fields, keyOrder)
	return merged
}

// OrderFields sorts field keys by importance: documents contributing the
// field first, then reference count, both descending. Ties keep the
// first-encounter order given in keyOrder.
func OrderFields(fields map[string]*types.Field, keyOrder []string) []string {
	ordered := make([]string, len(keyOrder))
	copy(ordered, keyOrder)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := fields[ordered[i]], fields[ordered[j]]
		if a.DocFrequency != b.DocFrequency {
			return a.DocFrequency > b.DocFrequency
		}
		return len(a.References) > len(b.References)
	})
	return ordered
}

// sortedKeys gives a deterministic iteration order over one partial;
// the union result is order-independent, but label choice and
// first-encounter ordering should not depend on map iteration.
func sortedKeys(partial types.PartialSchema) []string {
	keys := make([]string, 0, len(partial))
	for key := range partial {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func unionReferences(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, ref := range existing {
		seen[ref] = struct{}{}
	}
	for _, ref := range incoming {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		existing = append(existing, ref)
	}
	return existing
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
