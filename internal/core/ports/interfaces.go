package ports

import (
	"context"
	"io"

	"xscraper/internal/core/domain"
)

// TweetFetcher defines the contract for fetching a tweet and mapping it to a record.
type TweetFetcher interface {
	// FetchTweet runs the external tool for url and returns its raw output.
	FetchTweet(ctx context.Context, url string) ([]byte, error)

	// MapRecord converts raw tool output into a TweetRecord.
	// Returns a MalformedOutput error when required fields are missing.
	MapRecord(raw []byte, url string) (*domain.TweetRecord, error)
}

// MediaDownloader defines the contract for downloading media files.
type MediaDownloader interface {
	// Download fetches the media at mediaURL.
	// Returns a ReadCloser that the caller must close.
	Download(ctx context.Context, mediaURL string) (io.ReadCloser, error)
}

// Storage defines the contract for persisting output artifacts.
type Storage interface {
	// Save writes data to path, creating parent directories first.
	Save(ctx context.Context, path string, data []byte) error

	// SaveStream copies reader into path, creating parent directories first.
	SaveStream(ctx context.Context, path string, reader io.Reader) error
}

// PathResolver derives output paths from tweet metadata.
type PathResolver interface {
	// Resolve returns explicit if set, otherwise a dated per-tweet path.
	Resolve(rec *domain.TweetRecord, format domain.Format, explicit string) string

	// ResolveBatch returns the auto-generated path for a whole batch.
	ResolveBatch(results []domain.FetchResult, format domain.Format, runID string) string

	// MediaPath returns where a tweet's index-th media file is stored.
	MediaPath(tweetPath, kind string, index int, mediaURL string) string
}

// Cookies are the two X session cookies the external tool needs.
type Cookies struct {
	AuthToken string `json:"auth_token"`
	CT0       string `json:"ct0"`
}

// Valid reports whether both cookies are set.
func (c Cookies) Valid() bool {
	return c.AuthToken != "" && c.CT0 != ""
}

// CookieStore persists cookies between runs.
type CookieStore interface {
	// Load returns the saved cookies, or ok=false if none are saved.
	Load() (cookies Cookies, ok bool, err error)

	// Save persists cookies and returns the file path.
	Save(cookies Cookies) (string, error)
}
