// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/field-discovery/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSchema outputs a human-readable summary of a discovered schema.
func (p *Printer) PrintSchema(schema types.Schema) {
	if len(schema) == 0 {
		return
	}

	var sb strings.Builder

	sectionKeys := make([]string, 0, len(schema))
	for key := range schema {
		sectionKeys = append(sectionKeys, key)
	}
	sort.Strings(sectionKeys)

	for _, key := range sectionKeys {
		section := schema[key]
		sb.WriteString(fmt.Sprintf("%s (%d fields)\n", section.Label, len(section.Fields)))

		count := min(len(section.FieldOrder), maxItemsToShow)
		for i := 0; i < count; i++ {
			field := section.Fields[section.FieldOrder[i]]
			if field == nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("  • %s", field.Label))
			sb.WriteString(fmt.Sprintf(" (docs: %d, refs: %d, locs: %d)\n",
				field.DocFrequency, len(field.References), field.LocationCount))
		}
		if len(section.FieldOrder) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(section.FieldOrder)-maxItemsToShow))
		}
	}

	p.printBox("DISCOVERED SCHEMA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStats outputs a human-readable summary of a run's usage stats.
func (p *Printer) PrintStats(stats *types.UsageStats) {
	if stats == nil {
		return
	}

	var sb strings.Builder

	if stats.CacheHit {
		sb.WriteString("Cache:     HIT\n")
	} else {
		sb.WriteString("Cache:     miss\n")
	}
	sb.WriteString(fmt.Sprintf("Docs:      %d processed\n", stats.DocsProcessed))
	sb.WriteString(fmt.Sprintf("Fields:    %d in %d section(s)\n", stats.TotalFields, stats.SectionsCreated))
	sb.WriteString(fmt.Sprintf("Locations: %d\n", stats.TotalLocations))
	sb.WriteString(fmt.Sprintf("Time:      %.3fs (merge %.3fs)\n", stats.ProcessingTime, stats.MergeTime))

	summary := stats.Model.Summary
	if summary.Calls > 0 {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Model calls: %d\n", summary.Calls))
		sb.WriteString(fmt.Sprintf("Tokens:      %d in / %d out\n",
			summary.TotalInputTokens, summary.TotalOutputTokens))
	}

	p.printBox("RUN STATS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLocations outputs the indexed locations for one field.
func (p *Printer) PrintLocations(field *types.Field) {
	if field == nil || len(field.Locations) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Field: %s (%d locations)\n\n", field.Label, len(field.Locations)))

	count := min(len(field.Locations), maxItemsToShow)
	for i := 0; i < count; i++ {
		loc := field.Locations[i]
		sb.WriteString(fmt.Sprintf("%s:%d [%s]\n", loc.Filename, loc.LineIndex, loc.Type))
		sb.WriteString(fmt.Sprintf("  %s\n", loc.ContextLine))
	}
	if len(field.Locations) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(field.Locations)-maxItemsToShow))
	}

	p.printBox("FIELD LOCATIONS", strings.TrimSuffix(sb.String(), "\n"))
}
