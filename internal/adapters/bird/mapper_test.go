package bird_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"xscraper/internal/adapters/bird"
	"xscraper/internal/core/domain"
)

const sampleTweetURL = "https://x.com/bozhou_ai/status/2011738838767423983"

const sampleResponse = `{
  "id": "2011738838767423983",
  "text": "This is a sample tweet with some content.",
  "author": {"handle": "bozhou_ai", "name": "Bo Zhou", "id": "123456789"},
  "createdAt": "Thu Jan 15 10:30:00 +0000 2026",
  "media": [
    {"type": "photo", "url": "https://pbs.twimg.com/media/sample1.jpg", "width": 1200, "height": 800},
    {"type": "photo", "url": "https://pbs.twimg.com/media/sample2.jpg?format=jpg&name=small"},
    {"type": "video", "videoUrl": "https://video.twimg.com/ext_tw_video/sample.mp4"},
    {"type": "animated_gif", "video_url": "https://video.twimg.com/tweet_video/gif.mp4"}
  ],
  "conversationId": "2011738838767423983"
}`

var _ = Describe("MapRecord", func() {
	It("maps a full bird response", func() {
		rec, err := bird.MapRecord([]byte(sampleResponse), sampleTweetURL)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.ID).To(Equal("2011738838767423983"))
		Expect(rec.Text).To(Equal("This is a sample tweet with some content."))
		Expect(rec.AuthorHandle).To(Equal("bozhou_ai"))
		Expect(rec.AuthorName).To(Equal("Bo Zhou"))
		Expect(rec.CreatedAt).To(Equal("2026-01-15T10:30:00Z"))
		Expect(rec.URL).To(Equal(sampleTweetURL))
		Expect(rec.Images).To(Equal([]string{
			"https://pbs.twimg.com/media/sample1.jpg?format=jpg&name=orig",
			"https://pbs.twimg.com/media/sample2.jpg?format=jpg&name=orig",
		}))
		Expect(rec.Videos).To(Equal([]string{
			"https://video.twimg.com/ext_tw_video/sample.mp4",
			"https://video.twimg.com/tweet_video/gif.mp4",
		}))
		Expect(rec.IsThread).To(BeFalse())
		Expect(rec.ConversationID).To(Equal("2011738838767423983"))
	})

	It("returns empty, non-nil media lists for text-only tweets", func() {
		raw := `{"id": "999888777666", "text": "A text-only tweet.", "author": {"username": "testuser", "displayName": "Test User"}, "created_at": "2026-01-20T15:00:00Z", "media": []}`
		rec, err := bird.MapRecord([]byte(raw), "https://x.com/testuser/status/999888777666")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Images).NotTo(BeNil())
		Expect(rec.Images).To(BeEmpty())
		Expect(rec.Videos).NotTo(BeNil())
		Expect(rec.Videos).To(BeEmpty())
		Expect(rec.AuthorHandle).To(Equal("testuser"))
		Expect(rec.AuthorName).To(Equal("Test User"))

		out, err := json.Marshal(rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(ContainSubstring(`"images":[]`))
	})

	It("accepts numeric ids, full_text and legacy thread fields", func() {
		raw := `{"id": 1234567890123456789, "full_text": "legacy text", "author": {"screen_name": "old"}, "legacy": {"conversation_id_str": "1"}}`
		rec, err := bird.MapRecord([]byte(raw), "https://x.com/old/status/1234567890123456789")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.ID).To(Equal("1234567890123456789"))
		Expect(rec.Text).To(Equal("legacy text"))
		Expect(rec.AuthorHandle).To(Equal("old"))
		Expect(rec.IsThread).To(BeTrue())
		Expect(rec.ConversationID).To(Equal("1"))
	})

	It("falls back to the URL for the author handle", func() {
		rec, err := bird.MapRecord([]byte(`{"id": "5", "text": ""}`), "https://x.com/fromurl/status/5")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.AuthorHandle).To(Equal("fromurl"))
		Expect(rec.Text).To(BeEmpty())
	})

	It("keeps unparseable dates verbatim", func() {
		rec, err := bird.MapRecord([]byte(`{"id": "5", "text": "x", "createdAt": "yesterday"}`), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.CreatedAt).To(Equal("yesterday"))
	})

	It("takes the first element of an array payload", func() {
		rec, err := bird.MapRecord([]byte(`[{"id": "7", "text": "first"}, {"id": "8", "text": "second"}]`), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.ID).To(Equal("7"))
	})

	DescribeTable("rejecting bad payloads",
		func(raw string, kind domain.ErrorKind) {
			_, err := bird.MapRecord([]byte(raw), sampleTweetURL)
			Expect(domain.KindOf(err)).To(Equal(kind))
			Expect(domain.IsRetryable(err)).To(BeFalse())
		},
		Entry("missing id", `{"text": "hello"}`, domain.KindMalformedOutput),
		Entry("missing text", `{"id": "1"}`, domain.KindMalformedOutput),
		Entry("not JSON", `Tweet: hello`, domain.KindMalformedOutput),
		Entry("scalar", `42`, domain.KindMalformedOutput),
		Entry("empty array", `[]`, domain.KindNotFound),
	)
})

var _ = Describe("OriginalImageURL", func() {
	DescribeTable("rewrites twimg URLs",
		func(in, want string) {
			Expect(bird.OriginalImageURL(in)).To(Equal(want))
		},
		Entry("plain", "https://pbs.twimg.com/media/a.jpg", "https://pbs.twimg.com/media/a.jpg?format=jpg&name=orig"),
		Entry("sized", "https://pbs.twimg.com/media/a?format=png&name=small", "https://pbs.twimg.com/media/a?format=jpg&name=orig"),
		Entry("already orig", "https://pbs.twimg.com/media/a.jpg:orig", "https://pbs.twimg.com/media/a.jpg:orig"),
		Entry("other host", "https://example.com/a.jpg?x=1", "https://example.com/a.jpg?x=1"),
	)
})
