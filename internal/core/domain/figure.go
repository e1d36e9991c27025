package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// DocumentID is the content-derived identity of a source document:
// the hex-encoded SHA-256 digest of its bytes. Identical bytes always
// yield the same DocumentID, which makes it the idempotency key for
// the processing ledger.
type DocumentID string

// Fingerprint computes the DocumentID for a document's bytes.
// It is a pure function of the stream content; read errors propagate
// and are fatal to the run.
func Fingerprint(r io.Reader) (DocumentID, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("fingerprinting document: %w", err)
	}
	return DocumentID(hex.EncodeToString(h.Sum(nil))), nil
}

// FigureRef identifies one extracted figure of a document.
type FigureRef struct {
	// DocumentID is the identity of the document the figure belongs to.
	DocumentID DocumentID

	// Index is the zero-based position assigned by a lexicographic sort
	// over asset paths. Indices are dense and stable across repeated
	// runs over an unchanged asset directory.
	Index int

	// Path is the asset locator on the local filesystem.
	Path string
}
