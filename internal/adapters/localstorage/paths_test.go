package localstorage_test

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"xscraper/internal/adapters/localstorage"
	"xscraper/internal/core/domain"
)

var _ = Describe("Path resolution", func() {
	var storage *localstorage.LocalStorage

	BeforeEach(func() {
		storage = localstorage.NewLocalStorage("output")
		storage.Clock = func() time.Time {
			return time.Date(2026, 3, 4, 13, 14, 15, 0, time.UTC)
		}
	})

	record := func(id, handle, createdAt string) *domain.TweetRecord {
		return &domain.TweetRecord{ID: id, AuthorHandle: handle, CreatedAt: createdAt}
	}

	It("derives the dated per-tweet path", func() {
		rec := record("123", "user", "2026-01-15T09:54:50Z")
		Expect(storage.Resolve(rec, domain.FormatJSON, "")).To(Equal("output/2026/01/15/user/123.json"))
		Expect(storage.Resolve(rec, domain.FormatMarkdown, "")).To(Equal("output/2026/01/15/user/123.md"))
	})

	It("uses an explicit path verbatim", func() {
		rec := record("123", "user", "2026-01-15T09:54:50Z")
		Expect(storage.Resolve(rec, domain.FormatJSON, "custom/place.txt")).To(Equal("custom/place.txt"))
	})

	It("uses the UTC date of the tweet", func() {
		rec := record("9", "user", "2026-01-15T23:30:00-05:00")
		Expect(storage.Resolve(rec, domain.FormatJSON, "")).To(Equal("output/2026/01/16/user/9.json"))
	})

	It("falls back to the clock and placeholders", func() {
		rec := record("", "", "not a date")
		Expect(storage.Resolve(rec, domain.FormatJSON, "")).To(Equal("output/2026/03/04/unknown/tweet.json"))
	})

	It("keeps hostile handles inside one directory level", func() {
		rec := record("1", "../etc", "2026-01-15T09:54:50Z")
		Expect(storage.Resolve(rec, domain.FormatJSON, "")).To(Equal("output/2026/01/15/__etc/1.json"))
	})

	It("never collides for distinct author/id pairs on one date", func() {
		seen := map[string]bool{}
		for _, handle := range []string{"a", "b"} {
			for _, id := range []string{"1", "2"} {
				p := storage.Resolve(record(id, handle, "2026-01-15T00:00:00Z"), domain.FormatJSON, "")
				Expect(seen).NotTo(HaveKey(p))
				seen[p] = true
			}
		}
	})

	Describe("ResolveURL", func() {
		It("parses author and id from the URL", func() {
			Expect(storage.ResolveURL("https://x.com/someone/status/42", domain.FormatMarkdown)).
				To(Equal("output/2026/03/04/someone/42.md"))
		})
	})

	Describe("ResolveBatch", func() {
		It("uses the per-tweet path for a single success", func() {
			results := []domain.FetchResult{
				domain.Succeeded("https://x.com/user/status/123", record("123", "user", "2026-01-15T09:54:50Z"), 1),
			}
			Expect(storage.ResolveBatch(results, domain.FormatJSON, "run")).To(Equal("output/2026/01/15/user/123.json"))
		})

		It("uses the URL for a single failure", func() {
			results := []domain.FetchResult{{URL: "https://x.com/user/status/77", Error: "boom"}}
			Expect(storage.ResolveBatch(results, domain.FormatJSON, "run")).To(Equal("output/2026/03/04/user/77.json"))
		})

		It("names multi-tweet batches by time and run id", func() {
			results := []domain.FetchResult{{URL: "a"}, {URL: "b"}}
			Expect(storage.ResolveBatch(results, domain.FormatMarkdown, "0f8fad5b-d9cb-469f-a165-70867728950e")).
				To(Equal(filepath.Join("output", "2026", "03", "04", "batch_131415_0f8fad5b.md")))
		})
	})

	Describe("MediaPath", func() {
		It("places media beside the tweet file", func() {
			Expect(storage.MediaPath("output/2026/01/15/user/123.json", "image", 1, "https://pbs.twimg.com/media/a.png?format=jpg&name=orig")).
				To(Equal("output/2026/01/15/user/123_media/image_1.png"))
			Expect(storage.MediaPath("output/2026/01/15/user/123.md", "image", 2, "https://pbs.twimg.com/media/abc?format=webp&name=orig")).
				To(Equal("output/2026/01/15/user/123_media/image_2.webp"))
			Expect(storage.MediaPath("x/1.json", "video", 1, "https://video.twimg.com/v/clip")).
				To(Equal("x/1_media/video_1.mp4"))
		})
	})
})
