package locate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/field-discovery/internal/types"
)

func TestClassifyLine(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"| Name | Date |", types.LineTableRow},
		{"  | indented cell", types.LineTableRow},
		{"# Heading", types.LineHeader},
		{"###### Deep heading", types.LineHeader},
		{"#NotAHeading", types.LineParagraph},
		{"- bullet item", types.LineListItem},
		{"* starred item", types.LineListItem},
		{"> quoted text", types.LineBlockquote},
		{"plain prose line", types.LineParagraph},
		{"", types.LineParagraph},
	}
	for _, tc := range cases {
		if got := ClassifyLine(tc.line); got != tc.want {
			t.Errorf("ClassifyLine(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestFindInMarkdownOverlapping(t *testing.T) {
	locations := FindInMarkdown("aaa", "aa", "doc.md")
	if len(locations) != 2 {
		t.Fatalf("expected 2 overlapping matches, got %d", len(locations))
	}
	if locations[0].CharStart != 0 || locations[1].CharStart != 1 {
		t.Errorf("unexpected offsets: %d, %d", locations[0].CharStart, locations[1].CharStart)
	}
}

func TestFindInMarkdownOffsets(t *testing.T) {
	content := "# Title\nThe event runs May 5.\n| May 5 | venue |"
	locations := FindInMarkdown(content, "May 5", "doc.md")
	if len(locations) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(locations))
	}

	first := locations[0]
	if first.LineIndex != 1 {
		t.Errorf("first match line_index = %d, want 1", first.LineIndex)
	}
	if first.Type != types.LineParagraph {
		t.Errorf("first match type = %q, want paragraph", first.Type)
	}
	if content[first.CharStart:first.CharEnd] != "May 5" {
		t.Errorf("global offsets do not slice back to the reference: %q",
			content[first.CharStart:first.CharEnd])
	}
	if first.LineCharStart != 15 || first.LineCharEnd != 20 {
		t.Errorf("line offsets = [%d, %d), want [15, 20)", first.LineCharStart, first.LineCharEnd)
	}

	second := locations[1]
	if second.LineIndex != 2 || second.Type != types.LineTableRow {
		t.Errorf("second match line_index=%d type=%q, want 2/table_row", second.LineIndex, second.Type)
	}
}

func TestFindInMarkdownContextTruncation(t *testing.T) {
	long := "needle "
	for len(long) < 300 {
		long += "padding words fill the context line "
	}
	locations := FindInMarkdown(long, "needle", "doc.md")
	if len(locations) != 1 {
		t.Fatalf("expected 1 match, got %d", len(locations))
	}
	if got := len(locations[0].ContextLine); got > 100 {
		t.Errorf("context line length = %d, want <= 100", got)
	}
}

func TestFindInMarkdownContextStaysValidUTF8(t *testing.T) {
	line := "needle " + strings.Repeat("日本語の会場案内", 20)
	locations := FindInMarkdown(line, "needle", "doc.md")
	if len(locations) != 1 {
		t.Fatalf("expected 1 match, got %d", len(locations))
	}
	ctx := locations[0].ContextLine
	if !utf8.ValidString(ctx) {
		t.Errorf("context line is not valid UTF-8: %q", ctx)
	}
	if len(ctx) > 100 {
		t.Errorf("context line length = %d, want <= 100", len(ctx))
	}
}

func TestIndexAssignsLocations(t *testing.T) {
	docs := []types.Document{
		{Filename: "a.md", Markdown: "Spring Fest happens in May.\nSpring Fest again."},
		{Filename: "b.md", Markdown: "No mention here."},
	}
	schema := types.Schema{
		types.DocumentFieldsSection: {
			Label: "Document Fields",
			Fields: map[string]*types.Field{
				"event_name": {
					Label:       "Event Name",
					References:  []string{"Spring Fest"},
					SourceFiles: []string{"a.md"},
				},
			},
			FieldOrder: []string{"event_name"},
		},
	}

	total := Index(schema, docs, nil)
	if total != 2 {
		t.Fatalf("total locations = %d, want 2", total)
	}

	field := schema[types.DocumentFieldsSection].Fields["event_name"]
	if field.Frequency != 2 || field.LocationCount != 2 {
		t.Errorf("frequency=%d location_count=%d, want 2/2", field.Frequency, field.LocationCount)
	}
	for _, loc := range field.Locations {
		if loc.Filename != "a.md" {
			t.Errorf("location attributed to %q, want a.md", loc.Filename)
		}
	}
}

func TestIndexPermissiveWithoutSourceFiles(t *testing.T) {
	docs := []types.Document{
		{Filename: "a.md", Markdown: "venue: Main Hall"},
		{Filename: "b.md", Markdown: "the Main Hall opens at nine"},
	}
	schema := types.Schema{
		types.DocumentFieldsSection: {
			Label: "Document Fields",
			Fields: map[string]*types.Field{
				"venue": {Label: "Venue", References: []string{"Main Hall"}},
			},
			FieldOrder: []string{"venue"},
		},
	}

	if total := Index(schema, docs, nil); total != 2 {
		t.Fatalf("total locations = %d, want 2 (both documents searched)", total)
	}
}

func TestIndexSortsByFileLineOffset(t *testing.T) {
	docs := []types.Document{
		{Filename: "b.md", Markdown: "x\nx"},
		{Filename: "a.md", Markdown: "yy x x"},
	}
	schema := types.Schema{
		types.DocumentFieldsSection: {
			Label: "Document Fields",
			Fields: map[string]*types.Field{
				"f": {Label: "F", References: []string{"x"}},
			},
			FieldOrder: []string{"f"},
		},
	}

	Index(schema, docs, nil)
	locs := schema[types.DocumentFieldsSection].Fields["f"].Locations
	if len(locs) != 4 {
		t.Fatalf("expected 4 locations, got %d", len(locs))
	}
	want := []struct {
		file string
		line int
		char int
	}{
		{"a.md", 0, 3},
		{"a.md", 0, 5},
		{"b.md", 0, 0},
		{"b.md", 1, 2},
	}
	for i, w := range want {
		l := locs[i]
		if l.Filename != w.file || l.LineIndex != w.line || l.CharStart != w.char {
			t.Errorf("locs[%d] = %s/%d/%d, want %s/%d/%d",
				i, l.Filename, l.LineIndex, l.CharStart, w.file, w.line, w.char)
		}
	}
}

func TestIndexEmptyInputs(t *testing.T) {
	schema := types.Schema{
		types.DocumentFieldsSection: {
			Label:      "Document Fields",
			Fields:     map[string]*types.Field{"f": {Label: "F", References: []string{"x"}}},
			FieldOrder: []string{"f"},
		},
	}
	if total := Index(schema, nil, nil); total != 0 {
		t.Errorf("total = %d, want 0 for no documents", total)
	}
}
