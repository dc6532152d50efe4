package format

import (
	"bytes"
	"encoding/json"

	"xscraper/internal/core/domain"
)

// JSON renders results as an indented array with a trailing newline.
func JSON(results []domain.FetchResult) ([]byte, error) {
	if results == nil {
		results = []domain.FetchResult{}
	}
	return marshal(results)
}

// Record renders a single tweet record.
func Record(rec *domain.TweetRecord) ([]byte, error) {
	return marshal(rec)
}

// marshal indents v and leaves &, < and > unescaped.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
