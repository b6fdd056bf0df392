package locate

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/jonathan/field-discovery/internal/types"
)

// FindInDocx is the best-effort fallback search against a .docx file's
// paragraph texts, used when markdown text is unavailable for a source
// file. Any read or parse failure yields zero locations.
func FindInDocx(path, reference string) []types.Location {
	if path == "" || reference == "" {
		return nil
	}
	paragraphs, err := readDocxParagraphs(path)
	if err != nil {
		return nil
	}

	filename := filepath.Base(path)
	normalizedRef := normalizeText(reference)

	var locations []types.Location
	for paraIdx, para := range paragraphs {
		text := normalizeText(para)
		pos := strings.Index(text, normalizedRef)
		if pos < 0 {
			continue
		}
		locations = append(locations, types.Location{
			Filename:       filename,
			Type:           types.LineParagraph,
			ParagraphIndex: paraIdx,
			CharStart:      pos,
			CharEnd:        pos + len(normalizedRef),
			Text:           reference,
		})
	}
	return locations
}

// readDocxParagraphs extracts paragraph texts from the word/document.xml
// entry of a .docx archive.
func readDocxParagraphs(path string) ([]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	var docEntry *zip.File
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			docEntry = file
			break
		}
	}
	if docEntry == nil {
		return nil, io.ErrUnexpectedEOF
	}

	reader, err := docEntry.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return parseParagraphs(reader)
}

// parseParagraphs streams the WordprocessingML body, collecting the text
// runs (<w:t>) of each paragraph (<w:p>).
func parseParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
				}
				inParagraph = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

var textNormalizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"–", "-",
	"—", "-",
	" ", " ",
	"…", ".",
)

// normalizeText flattens typographic quotes, dashes and spaces that DOCX
// converters introduce, so exact matching still works.
func normalizeText(text string) string {
	return textNormalizer.Replace(text)
}
