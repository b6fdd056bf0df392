package types

// Line type classifications for reference locations within markdown text.
const (
	LineParagraph  = "paragraph"
	LineHeader     = "header"
	LineListItem   = "list_item"
	LineTableRow   = "table_row"
	LineBlockquote = "blockquote"
)

// DocumentFieldsSection is the single section key the merger produces.
const DocumentFieldsSection = "document_fields"

// RawField is a single field as returned by the extraction model for one
// document, before merging.
type RawField struct {
	Label          string   `json:"label"`
	References     []string `json:"references"`
	SourceFilename string   `json:"source_filename,omitempty"`
}

// PartialSchema is one document's raw field set, keyed by snake_case
// field key. Keys are chosen by the model and are data, not schema.
type PartialSchema map[string]*RawField

// Field is the merged, canonical form of a discovered field.
type Field struct {
	Label         string     `json:"label"`
	References    []string   `json:"references"`
	SourceFiles   []string   `json:"source_files,omitempty"`
	DocFrequency  int        `json:"doc_frequency,omitempty"`
	Locations     []Location `json:"locations,omitempty"`
	Frequency     int        `json:"frequency,omitempty"`
	LocationCount int        `json:"location_count,omitempty"`
}

// Location is one exact occurrence of a reference inside a source
// document. Char offsets are computed against the newline-joined full
// text; line offsets are relative to the matched line, so the frontend
// can highlight either way.
type Location struct {
	Filename       string `json:"filename"`
	Type           string `json:"type"`
	LineIndex      int    `json:"line_index"`
	ParagraphIndex int    `json:"paragraph_index,omitempty"`
	CharStart      int    `json:"char_start"`
	CharEnd        int    `json:"char_end"`
	LineCharStart  int    `json:"line_char_start"`
	LineCharEnd    int    `json:"line_char_end"`
	Text           string `json:"text"`
	ContextLine    string `json:"context_line,omitempty"`
}

// Section groups fields under a labeled heading. The merger currently
// produces one section, "document_fields". FieldOrder records the
// importance ordering since map iteration order is undefined.
type Section struct {
	Label        string            `json:"label"`
	Fields       map[string]*Field `json:"fields"`
	FieldOrder   []string          `json:"field_order,omitempty"`
	DocFrequency int               `json:"doc_frequency"`
}

// Schema is the discovered field schema, keyed by section.
type Schema map[string]*Section

// DocumentFields returns the standard section, or nil if absent.
func (s Schema) DocumentFields() *Section {
	return s[DocumentFieldsSection]
}

// TotalFields counts fields across all sections.
func (s Schema) TotalFields() int {
	n := 0
	for _, section := range s {
		n += len(section.Fields)
	}
	return n
}
