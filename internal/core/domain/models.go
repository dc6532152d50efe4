package domain

import "time"

// Format is an output serialization format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "json"
}

// AuthPolicy decides what a batch does after an authentication failure.
type AuthPolicy string

const (
	AuthFailSoft AuthPolicy = "fail-soft" // mark the URL failed, keep going
	AuthFailFast AuthPolicy = "fail-fast" // stop scheduling new URLs
)

// TweetRecord is the normalized form of a single tweet.
type TweetRecord struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	AuthorHandle   string   `json:"author_handle"`
	AuthorName     string   `json:"author_name"`
	CreatedAt      string   `json:"created_at"`
	Images         []string `json:"images"`
	Videos         []string `json:"videos"`
	URL            string   `json:"url,omitempty"`
	IsThread       bool     `json:"is_thread"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// CreatedTime parses CreatedAt. ok is false when it isn't RFC 3339.
func (r *TweetRecord) CreatedTime() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FetchResult holds the outcome of fetching one URL.
// Exactly one of Data and Error is set.
type FetchResult struct {
	Success bool         `json:"success"`
	URL     string       `json:"url"`
	Data    *TweetRecord `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`

	Attempts int       `json:"-"`
	Kind     ErrorKind `json:"-"`
}

// Succeeded builds a success result.
func Succeeded(url string, rec *TweetRecord, attempts int) FetchResult {
	return FetchResult{Success: true, URL: url, Data: rec, Attempts: attempts}
}

// Failed builds a failure result from err.
func Failed(url string, err error, attempts int) FetchResult {
	return FetchResult{
		Success:  false,
		URL:      url,
		Error:    err.Error(),
		Attempts: attempts,
		Kind:     KindOf(err),
	}
}

// ScrapeJob is one CLI invocation's worth of work plus its resolved options.
type ScrapeJob struct {
	ID            string
	URLs          []string
	Format        Format
	OutputPath    string // empty means derive automatically
	Parallelism   int
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	AuthPolicy    AuthPolicy
	Split         bool
	DownloadMedia bool
	CreatedAt     time.Time
}

// Tally counts successes and failures in results.
func Tally(results []FetchResult) (success, failed int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
		}
	}
	return success, failed
}
