package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/field-discovery/internal/types"
)

// documentExtensions lists the file types loaded as markdown documents.
var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// LoadDocument reads one file, cleans its text, and returns it as a
// document named after its base filename.
func LoadDocument(path string) (types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Document{}, fmt.Errorf("file not found: %w", err)
		}
		return types.Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	return types.Document{
		Filename:   filepath.Base(path),
		Markdown:   CleanText(string(content)),
		SourcePath: path,
	}, nil
}

// LoadDocuments loads every path in order. Any unreadable file fails the
// whole load; a discovery run over a silently truncated document set
// would produce a misleading schema.
func LoadDocuments(paths []string) ([]types.Document, error) {
	docs := make([]types.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := LoadDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadDir loads all recognized document files directly under dir,
// sorted by filename for stable fingerprints.
func LoadDir(dir string) ([]types.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if documentExtensions[ext] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no document files found in %s", dir)
	}
	return LoadDocuments(paths)
}
