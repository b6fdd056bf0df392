// Package types provides type definitions for structured data used throughout the field-discovery system.
package types

// Document is one source document submitted to a discovery run.
// Markdown holds the already-extracted text; binary-format conversion
// happens upstream of the engine.
type Document struct {
	Filename   string `json:"filename" validate:"required,min=1"`
	Markdown   string `json:"markdown"`
	SourcePath string `json:"source_path,omitempty"`
}
