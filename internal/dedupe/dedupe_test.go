package dedupe

import (
	"reflect"
	"strings"
	"testing"
)

func TestExactReferences(t *testing.T) {
	tests := []struct {
		name string
		refs []string
		want []string
	}{
		{
			name: "duplicates dropped in stable order",
			refs: []string{"Spring Fest", "2025-09-08", "Spring Fest", "Town Hall", "2025-09-08"},
			want: []string{"Spring Fest", "2025-09-08", "Town Hall"},
		},
		{
			name: "already unique",
			refs: []string{"a", "b", "c"},
			want: []string{"a", "b", "c"},
		},
		{
			name: "single element",
			refs: []string{"only"},
			want: []string{"only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExactReferences(tt.refs); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExactReferences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExactReferences_Idempotent(t *testing.T) {
	refs := []string{"b", "a", "b", "c"}
	once := ExactReferences(refs)
	twice := ExactReferences(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed result: %v -> %v", once, twice)
	}
}

func TestFuzzyReferences_KeepsLongestRepresentative(t *testing.T) {
	refs := []string{
		"Spring Fest",
		"Spring Fest 2025",
	}
	got := FuzzyReferences(refs, 65)
	if len(got) != 1 {
		t.Fatalf("kept %d references, want 1: %v", len(got), got)
	}
	if got[0] != "Spring Fest 2025" {
		t.Errorf("kept %q, want the longer phrasing", got[0])
	}
}

func TestFuzzyReferences_DistinctSurvive(t *testing.T) {
	refs := []string{"Event Name", "Venue"}
	got := FuzzyReferences(refs, DefaultThreshold)
	if len(got) != 2 {
		t.Errorf("kept %d references, want 2: %v", len(got), got)
	}
}

func TestFuzzyReferences_ThresholdBoundary(t *testing.T) {
	base := strings.Repeat("a", 20)

	// 3 substitutions in 20 chars → ratio exactly 85: duplicate.
	atThreshold := "bbb" + base[3:]
	if got := FuzzyReferences([]string{base, atThreshold}, DefaultThreshold); len(got) != 1 {
		t.Errorf("ratio at threshold kept %d references, want 1", len(got))
	}

	// 4 substitutions → ratio 80: distinct.
	belowThreshold := "bbbb" + base[4:]
	if got := FuzzyReferences([]string{base, belowThreshold}, DefaultThreshold); len(got) != 2 {
		t.Errorf("ratio below threshold kept %d references, want 2", len(got))
	}
}

func TestFuzzyReferences_Idempotent(t *testing.T) {
	refs := []string{
		"08-09-2025 TO 10-09-2025",
		"08/09/2025 to 10/09/2025",
		"Venue",
	}
	once := FuzzyReferences(refs, 70)
	twice := FuzzyReferences(once, 70)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed result: %v -> %v", once, twice)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("same", "same"); got != 100 {
		t.Errorf("Ratio(identical) = %d, want 100", got)
	}
	if got := Ratio("Event Name", "Venue"); got >= DefaultThreshold {
		t.Errorf("Ratio(unrelated) = %d, want < %d", got, DefaultThreshold)
	}
}
