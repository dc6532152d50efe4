package format

import (
	"fmt"
	"strings"

	"xscraper/internal/core/domain"
)

// Markdown renders a digest: a header with counts, then one section per
// successful result. Failures are counted but not rendered.
func Markdown(results []domain.FetchResult) string {
	if len(results) == 0 {
		return "# No tweets scraped\n"
	}

	success, failed := domain.Tally(results)

	var b strings.Builder
	b.WriteString("# Scraped Tweets\n\n")
	fmt.Fprintf(&b, "**Total:** %d tweets | **Success:** %d | **Failed:** %d\n\n", len(results), success, failed)
	b.WriteString("---\n\n")

	for i := range results {
		if results[i].Success && results[i].Data != nil {
			writeTweet(&b, &results[i])
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Single renders one result on its own, including failures.
func Single(r domain.FetchResult) string {
	var b strings.Builder
	if !r.Success || r.Data == nil {
		msg := r.Error
		if msg == "" {
			msg = "Unknown error"
		}
		fmt.Fprintf(&b, "## Failed to scrape\n\n**URL:** %s\n\n**Error:** %s\n", r.URL, msg)
		return b.String()
	}
	writeTweet(&b, &r)
	return b.String()
}

func writeTweet(b *strings.Builder, r *domain.FetchResult) {
	t := r.Data

	handle := t.AuthorHandle
	if handle == "" {
		handle = "unknown"
	}
	if t.AuthorName != "" {
		fmt.Fprintf(b, "## %s (@%s)\n\n", t.AuthorName, handle)
	} else {
		fmt.Fprintf(b, "## @%s\n\n", handle)
	}

	if t.Text != "" {
		b.WriteString(t.Text)
		b.WriteString("\n\n")
	}

	if t.CreatedAt != "" {
		fmt.Fprintf(b, "**Posted:** %s\n", t.CreatedAt)
	}
	url := t.URL
	if url == "" {
		url = r.URL
	}
	fmt.Fprintf(b, "**URL:** [%s](%s)\n\n", url, url)

	if len(t.Images) > 0 {
		fmt.Fprintf(b, "### Images (%d)\n\n", len(t.Images))
		for i, img := range t.Images {
			fmt.Fprintf(b, "![Image %d](%s)\n\n", i+1, img)
		}
	}

	if len(t.Videos) > 0 {
		fmt.Fprintf(b, "### Videos (%d)\n\n", len(t.Videos))
		for i, v := range t.Videos {
			fmt.Fprintf(b, "- [Video %d](%s)\n", i+1, v)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
}
