package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"xscraper/internal/adapters/localstorage"
	"xscraper/internal/core/domain"
	"xscraper/internal/format"
	"xscraper/internal/service"
)

type fakeDownloader struct {
	fail map[string]bool
}

func (d *fakeDownloader) Download(_ context.Context, mediaURL string) (io.ReadCloser, error) {
	if d.fail[mediaURL] {
		return nil, errors.New("unexpected status: 403 Forbidden")
	}
	return io.NopCloser(strings.NewReader("bytes of " + mediaURL)), nil
}

// mediaFetcher returns tweets carrying one image and one video.
type mediaFetcher struct {
	*fakeFetcher
}

func (f mediaFetcher) MapRecord(raw []byte, url string) (*domain.TweetRecord, error) {
	rec, err := f.fakeFetcher.MapRecord(raw, url)
	if err != nil {
		return nil, err
	}
	rec.Images = []string{"https://pbs.twimg.com/media/" + rec.ID + ".png?format=jpg&name=orig"}
	rec.Videos = []string{"https://video.twimg.com/ext_tw_video/" + rec.ID + "/vid.mp4"}
	return rec, nil
}

var _ = Describe("Run", func() {
	var (
		dir    string
		store  *localstorage.LocalStorage
		logger *logrus.Logger
		ctx    context.Context
	)

	noSleep := service.WithSleep(func(context.Context, time.Duration) error { return nil })

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		store = localstorage.NewLocalStorage(filepath.Join(dir, "output"))
		store.Clock = func() time.Time { return time.Date(2026, 3, 4, 13, 14, 15, 0, time.UTC) }
		logger = logrus.New()
		logger.SetOutput(io.Discard)
		ctx = context.Background()
	})

	mixed := func() *fakeFetcher {
		return newFakeFetcher(func(_ context.Context, url string, _ int) ([]byte, error) {
			if strings.HasSuffix(url, "/404") {
				return nil, domain.NewError(domain.KindNotFound, "Tweet not found", nil)
			}
			return []byte("hello"), nil
		})
	}

	It("writes the batch to the explicit output path", func() {
		orch := service.NewOrchestrator(mixed(), store, store, nil, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1), tweetURL(404)})
		job.OutputPath = filepath.Join(dir, "tweets.json")

		report, err := orch.Run(ctx, job)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.OutputPath).To(Equal(job.OutputPath))
		Expect(report.Success).To(Equal(1))
		Expect(report.Failed).To(Equal(1))
		Expect(report.OK()).To(BeFalse())

		want, err := format.JSON(report.Results)
		Expect(err).NotTo(HaveOccurred())
		got, err := os.ReadFile(job.OutputPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("derives a dated batch path when none is given", func() {
		orch := service.NewOrchestrator(mixed(), store, store, nil, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1), tweetURL(2)})
		job.ID = "0f8c2d4e-aaaa-bbbb-cccc-dddddddddddd"
		job.Format = domain.FormatMarkdown

		report, err := orch.Run(ctx, job)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.OK()).To(BeTrue())
		Expect(report.OutputPath).To(Equal(filepath.Join(dir, "output", "2026", "03", "04", "batch_131415_0f8c2d4e.md")))
		Expect(report.OutputPath).To(BeAnExistingFile())
	})

	It("writes one file per tweet when splitting", func() {
		orch := service.NewOrchestrator(mixed(), store, store, nil, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1), tweetURL(404), tweetURL(2)})
		job.OutputPath = filepath.Join(dir, "all.json")
		job.Split = true

		report, err := orch.Run(ctx, job)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.SplitPaths).To(Equal([]string{
			filepath.Join(dir, "output", "2026", "01", "15", "user", "1.json"),
			filepath.Join(dir, "output", "2026", "01", "15", "user", "2.json"),
		}))
		for _, p := range report.SplitPaths {
			Expect(p).To(BeAnExistingFile())
		}
		Expect(report.SaveErrors).To(BeEmpty())
	})

	It("keeps the batch array when a single tweet is also split", func() {
		orch := service.NewOrchestrator(mixed(), store, store, nil, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1)})
		job.Split = true

		report, err := orch.Run(ctx, job)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.OutputPath).To(Equal(filepath.Join(dir, "output", "2026", "01", "15", "user", "1.json")))
		Expect(report.SplitPaths).To(BeEmpty())
		Expect(report.SaveErrors).To(BeEmpty())

		raw, err := os.ReadFile(report.OutputPath)
		Expect(err).NotTo(HaveOccurred())
		var entries []map[string]interface{}
		Expect(json.Unmarshal(raw, &entries)).To(Succeed())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0]).To(HaveKeyWithValue("success", true))
	})

	It("reports per-tweet write failures and still writes the batch", func() {
		blocker := filepath.Join(dir, "blocked")
		Expect(os.WriteFile(blocker, []byte("not a dir"), 0o644)).To(Succeed())
		blockedStore := localstorage.NewLocalStorage(blocker)

		orch := service.NewOrchestrator(mixed(), blockedStore, blockedStore, nil, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1), tweetURL(2)})
		job.OutputPath = filepath.Join(dir, "all.json")
		job.Split = true

		report, err := orch.Run(ctx, job)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.OutputPath).To(BeAnExistingFile())
		Expect(report.SaveErrors).To(HaveLen(2))
		Expect(domain.IsKind(report.SaveErrors[0], domain.KindPathError)).To(BeTrue())
		Expect(report.OK()).To(BeFalse())
	})

	It("fails when the batch file cannot be written", func() {
		blocker := filepath.Join(dir, "blocked")
		Expect(os.WriteFile(blocker, []byte("not a dir"), 0o644)).To(Succeed())

		orch := service.NewOrchestrator(mixed(), store, store, nil, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1)})
		job.OutputPath = filepath.Join(blocker, "out.json")

		report, err := orch.Run(ctx, job)
		Expect(err).To(HaveOccurred())
		Expect(domain.IsKind(err, domain.KindPathError)).To(BeTrue())
		Expect(report.Results).To(HaveLen(1))
	})

	It("downloads media next to each tweet", func() {
		f := mediaFetcher{mixed()}
		dl := &fakeDownloader{fail: map[string]bool{
			"https://video.twimg.com/ext_tw_video/2/vid.mp4": true,
		}}
		orch := service.NewOrchestrator(f, store, store, dl, logger, noSleep)
		job := service.NewJob([]string{tweetURL(1), tweetURL(2)})
		job.OutputPath = filepath.Join(dir, "all.json")
		job.DownloadMedia = true

		report, err := orch.Run(ctx, job)
		Expect(err).NotTo(HaveOccurred())

		mediaDir := filepath.Join(dir, "output", "2026", "01", "15", "user", "1_media")
		Expect(report.MediaFiles).To(ContainElements(
			filepath.Join(mediaDir, "image_1.png"),
			filepath.Join(mediaDir, "video_1.mp4"),
		))
		Expect(report.MediaFiles).To(HaveLen(3))
		Expect(report.SaveErrors).To(HaveLen(1))

		data, err := os.ReadFile(filepath.Join(mediaDir, "video_1.mp4"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("bytes of https://video.twimg.com/ext_tw_video/1/vid.mp4"))
	})
})
