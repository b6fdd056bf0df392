package locate

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/field-discovery/internal/types"
)

// Index recomputes, for every field in schema, every exact occurrence of
// every reference across the source documents, and stores them on the
// fields. Documents are matched against a field's recorded source files;
// a field without source markers is searched in every document. Returns
// the total number of locations found.
func Index(schema types.Schema, docs []types.Document, docPaths []string) int {
	if len(docs) == 0 && len(docPaths) == 0 {
		return 0
	}

	pathByBase := make(map[string]string, len(docPaths))
	for _, p := range docPaths {
		pathByBase[filepath.Base(p)] = p
	}

	total := 0
	for _, section := range schema {
		for _, field := range section.Fields {
			var locations []types.Location
			for _, ref := range field.References {
				if ref == "" {
					continue
				}

				for _, doc := range docs {
					if !matchesSource(field.SourceFiles, doc.Filename) {
						continue
					}
					locations = append(locations, FindInMarkdown(doc.Markdown, ref, doc.Filename)...)
				}

				// DOCX fallback for source files only attached as paths.
				for _, sf := range field.SourceFiles {
					path := resolvePath(sf, pathByBase, docPaths)
					if path != "" && strings.HasSuffix(path, ".docx") {
						locations = append(locations, FindInDocx(path, ref)...)
					}
				}
			}

			sort.SliceStable(locations, func(i, j int) bool {
				a, b := locations[i], locations[j]
				if a.Filename != b.Filename {
					return a.Filename < b.Filename
				}
				if a.LineIndex != b.LineIndex {
					return a.LineIndex < b.LineIndex
				}
				return a.CharStart < b.CharStart
			})

			field.Locations = locations
			field.Frequency = len(locations)
			field.LocationCount = len(locations)
			total += len(locations)
		}
	}
	return total
}

// matchesSource reports whether a document belongs to a field's sources.
// A field with no source markers matches everything (permissive
// fallback); markers match by substring containment in the filename.
func matchesSource(sourceFiles []string, filename string) bool {
	if len(sourceFiles) == 0 {
		return true
	}
	for _, sf := range sourceFiles {
		if strings.Contains(filename, sf) {
			return true
		}
	}
	return false
}

func resolvePath(sourceFile string, pathByBase map[string]string, docPaths []string) string {
	if path, ok := pathByBase[sourceFile]; ok {
		return path
	}
	for _, p := range docPaths {
		if strings.HasSuffix(p, sourceFile) {
			return p
		}
	}
	return ""
}
