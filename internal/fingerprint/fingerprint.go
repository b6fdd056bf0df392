// Package fingerprint derives the deterministic cache identity of a discovery run.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/jonathan/field-discovery/internal/types"
)

const (
	// documentPrefixChars bounds how much of each document participates
	// in the fingerprint. Edits beyond the prefix do not change the key.
	documentPrefixChars = 1000
	// instructionPrefixChars bounds the user-instruction contribution.
	instructionPrefixChars = 500
)

// Compute returns a sha256 hex digest over the document filenames and
// text prefixes (in input order), the auxiliary document paths, and the
// user instructions. Identical inputs always yield the same digest;
// reordering documents changes it.
func Compute(docs []types.Document, docPaths []string, userInstructions string) string {
	h := sha256.New()
	for _, doc := range docs {
		io.WriteString(h, doc.Filename)
		io.WriteString(h, ":")
		io.WriteString(h, prefix(doc.Markdown, documentPrefixChars))
	}
	for _, p := range docPaths {
		io.WriteString(h, "docx:")
		io.WriteString(h, p)
	}
	io.WriteString(h, "user_instructions:")
	io.WriteString(h, prefix(strings.TrimSpace(userInstructions), instructionPrefixChars))
	return hex.EncodeToString(h.Sum(nil))
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
