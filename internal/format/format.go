// Package format renders fetch results as JSON or Markdown.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"xscraper/internal/core/domain"
)

// Parse converts a --format value into a domain.Format.
func Parse(s string) (domain.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return domain.FormatJSON, nil
	case "markdown", "md":
		return domain.FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or markdown)", s)
}

// FromPath infers the format from a file extension. ok is false when the
// extension says nothing.
func FromPath(path string) (f domain.Format, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return domain.FormatMarkdown, true
	case ".json":
		return domain.FormatJSON, true
	}
	return "", false
}

// Render serializes results in format f.
func Render(results []domain.FetchResult, f domain.Format) ([]byte, error) {
	if f == domain.FormatMarkdown {
		return []byte(Markdown(results)), nil
	}
	return JSON(results)
}
