package bird

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"xscraper/internal/core/domain"
	"xscraper/internal/xurl"
)

// Field names bird has used across versions, most recent first.
var (
	idFields           = []string{"id", "rest_id", "id_str"}
	textFields         = []string{"text", "full_text"}
	handleFields       = []string{"username", "handle", "screen_name", "userName"}
	nameFields         = []string{"name", "displayName"}
	dateFields         = []string{"createdAt", "created_at"}
	conversationFields = []string{"conversationId", "conversation_id"}
	videoFields        = []string{"videoUrl", "video_url"}
)

// MapRecord implements ports.TweetFetcher.
func (c *Client) MapRecord(raw []byte, url string) (*domain.TweetRecord, error) {
	return MapRecord(raw, url)
}

// MapRecord converts the JSON bird prints for `read --json` into a TweetRecord.
func MapRecord(raw []byte, url string) (*domain.TweetRecord, error) {
	item, err := decodeItem(raw)
	if err != nil {
		return nil, err
	}

	id := stringField(item, idFields...)
	if id == "" {
		return nil, malformed("missing tweet id")
	}
	text, ok := textField(item)
	if !ok {
		return nil, malformed("missing tweet text")
	}

	author := objectField(item, "author", "user")
	handle := stringField(author, handleFields...)
	if handle == "" {
		handle = xurl.Parse(url).Username
	}

	conversationID := stringField(item, conversationFields...)
	if conversationID == "" {
		conversationID = stringField(objectField(item, "legacy"), "conversation_id_str")
	}

	images, videos := extractMedia(item)

	return &domain.TweetRecord{
		ID:             id,
		Text:           text,
		AuthorHandle:   handle,
		AuthorName:     stringField(author, nameFields...),
		CreatedAt:      normalizeDate(stringField(item, dateFields...)),
		Images:         images,
		Videos:         videos,
		URL:            url,
		IsThread:       conversationID != "" && conversationID != id,
		ConversationID: conversationID,
	}, nil
}

// decodeItem accepts a single object or a dataset-style array whose first
// element is the tweet.
func decodeItem(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, malformed(fmt.Sprintf("failed to parse bird output as JSON: %v", err))
	}

	switch v := payload.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, domain.NewError(domain.KindNotFound, "Tweet not found: bird returned no results", nil)
		}
		if item, ok := v[0].(map[string]interface{}); ok {
			return item, nil
		}
	}
	return nil, malformed("bird output is not a JSON object")
}

func extractMedia(item map[string]interface{}) (images, videos []string) {
	images = []string{}
	videos = []string{}

	media, _ := item["media"].([]interface{})
	for _, m := range media {
		entry, ok := m.(map[string]interface{})
		if !ok {
			continue
		}
		switch stringField(entry, "type") {
		case "photo":
			if u := stringField(entry, "url", "media_url_https"); u != "" {
				images = append(images, OriginalImageURL(u))
			}
		case "video", "animated_gif":
			if u := stringField(entry, videoFields...); u != "" {
				videos = append(videos, u)
			}
		}
	}
	return images, videos
}

// OriginalImageURL rewrites a twimg URL so it requests the original size.
// Other URLs are returned unchanged.
func OriginalImageURL(u string) string {
	if !strings.Contains(u, "twimg.com") {
		return u
	}
	base, _, _ := strings.Cut(u, "?")
	if strings.HasSuffix(base, ":orig") {
		return u
	}
	return base + "?format=jpg&name=orig"
}

// normalizeDate converts X's ruby-style timestamp or RFC 3339 into RFC 3339
// UTC. Anything else is kept verbatim.
func normalizeDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RubyDate, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}

func textField(item map[string]interface{}) (string, bool) {
	found := false
	for _, k := range textFields {
		if s, ok := item[k].(string); ok {
			found = true
			if s != "" {
				return s, true
			}
		}
	}
	return "", found
}

func stringField(item map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func objectField(item map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		if obj, ok := item[k].(map[string]interface{}); ok {
			return obj
		}
	}
	return nil
}

func malformed(msg string) error {
	return domain.NewError(domain.KindMalformedOutput, msg, nil)
}
