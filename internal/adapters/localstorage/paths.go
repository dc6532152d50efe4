package localstorage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"xscraper/internal/core/domain"
	"xscraper/internal/xurl"
)

// DefaultBaseDir is where auto-generated output paths are rooted.
const DefaultBaseDir = "output"

// Resolve returns explicit when set, otherwise
// <base>/<yyyy>/<mm>/<dd>/<author_handle>/<tweet_id>.<ext> with the date taken
// from the tweet's created_at.
func (s *LocalStorage) Resolve(rec *domain.TweetRecord, format domain.Format, explicit string) string {
	if explicit != "" {
		return explicit
	}
	day, ok := rec.CreatedTime()
	if !ok {
		day = s.now()
	}
	return s.tweetPath(day, rec.AuthorHandle, rec.ID, format)
}

// ResolveURL derives a per-tweet path from the URL alone, dated today. Used
// when there is no record to take metadata from.
func (s *LocalStorage) ResolveURL(rawURL string, format domain.Format) string {
	p := xurl.Parse(rawURL)
	return s.tweetPath(s.now(), p.Username, p.TweetID, format)
}

// ResolveBatch picks the output path for a whole batch. A single-URL batch
// gets the per-tweet path; larger batches get a timestamped batch file.
func (s *LocalStorage) ResolveBatch(results []domain.FetchResult, format domain.Format, runID string) string {
	if len(results) == 1 {
		if r := results[0]; r.Success && r.Data != nil {
			return s.Resolve(r.Data, format, "")
		}
		return s.ResolveURL(results[0].URL, format)
	}

	now := s.now()
	suffix := strings.ReplaceAll(runID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	name := "batch_" + now.Format("150405")
	if suffix != "" {
		name += "_" + suffix
	}
	return filepath.Join(s.BaseDir, now.Format("2006"), now.Format("01"), now.Format("02"), name+"."+format.Ext())
}

// MediaPath returns where the index-th (1-based) media file of a tweet saved
// at tweetPath is stored: a sibling "<id>_media" directory.
func (s *LocalStorage) MediaPath(tweetPath, kind string, index int, mediaURL string) string {
	dir := strings.TrimSuffix(tweetPath, filepath.Ext(tweetPath)) + "_media"
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", kind, index, mediaExt(kind, mediaURL)))
}

func (s *LocalStorage) tweetPath(day time.Time, handle, id string, format domain.Format) string {
	day = day.UTC()
	return filepath.Join(
		s.BaseDir,
		day.Format("2006"),
		day.Format("01"),
		day.Format("02"),
		segment(handle, "unknown"),
		segment(id, "tweet")+"."+format.Ext(),
	)
}

func (s *LocalStorage) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// segment makes s safe to use as a single path element.
func segment(s, fallback string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" || s == "." {
		return fallback
	}
	return s
}

func mediaExt(kind, mediaURL string) string {
	base, query, _ := strings.Cut(mediaURL, "?")
	base = strings.TrimSuffix(base, ":orig")
	if ext := path.Ext(base); ext != "" && len(ext) <= 5 {
		return ext
	}
	if strings.Contains(query, "format=") {
		for _, kv := range strings.Split(query, "&") {
			if v, ok := strings.CutPrefix(kv, "format="); ok && v != "" {
				return "." + v
			}
		}
	}
	if kind == "video" {
		return ".mp4"
	}
	return ".jpg"
}
