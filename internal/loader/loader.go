package loader

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"secai/internal/domain"
)

// ErrNotArchiveURL is returned for document URLs outside the filing archive.
var ErrNotArchiveURL = errors.New("url is not an EDGAR archive document")

// Fetcher downloads archive documents. The EDGAR client satisfies it.
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) ([]byte, string, error)
	IsArchiveURL(url string) bool
}

// Loader turns filing URLs into text documents.
type Loader struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load fetches url and extracts its text. HTML is stripped to visible text;
// anything else is treated as plain text.
func (l *Loader) Load(ctx context.Context, url string) (domain.Document, error) {
	if !l.fetcher.IsArchiveURL(url) {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrNotArchiveURL, url)
	}
	body, contentType, err := l.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return domain.Document{}, err
	}
	doc := domain.Document{ID: DocumentID(url), URL: url, Title: path.Base(url)}
	if isHTML(contentType, url, body) {
		title, text, err := ExtractText(bytes.NewReader(body))
		if err != nil {
			return domain.Document{}, fmt.Errorf("parse %s: %w", url, err)
		}
		if title != "" {
			doc.Title = title
		}
		doc.Content = text
	} else {
		doc.Content = strings.TrimSpace(string(body))
	}
	if doc.Content == "" {
		return domain.Document{}, fmt.Errorf("no text extracted from %s", url)
	}
	return doc, nil
}

// DocumentID derives a stable short id from a document URL.
func DocumentID(url string) string {
	h := sha1.Sum([]byte(url))
	return hex.EncodeToString(h[:8])
}

func isHTML(contentType, url string, body []byte) bool {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"), strings.Contains(ct, "xml"):
		return true
	case strings.HasPrefix(ct, "text/plain"):
		return false
	}
	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")) || bytes.HasPrefix(head, []byte("<?xml"))
}
