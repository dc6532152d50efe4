package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"xscraper/internal/core/domain"
	"xscraper/internal/format"
)

// Report summarizes a finished scrape run.
type Report struct {
	Job         domain.ScrapeJob
	Results     []domain.FetchResult
	OutputPath  string
	SplitPaths  []string
	MediaFiles  []string
	SaveErrors  []error
	Success     int
	Failed      int
	CompletedAt time.Time
}

// OK reports whether every URL succeeded and every file was written.
func (r *Report) OK() bool {
	return r.Failed == 0 && len(r.SaveErrors) == 0
}

// Run scrapes the job's URLs, writes the batch file and, when requested,
// per-tweet files and media. The returned error is set only when the batch
// file itself could not be written; the report is returned either way.
func (o *Orchestrator) Run(ctx context.Context, job domain.ScrapeJob) (*Report, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	log := o.logger.WithField("run_id", job.ID)

	results := o.ScrapeAll(ctx, job)
	report := &Report{Job: job, Results: results}
	report.Success, report.Failed = domain.Tally(results)

	data, err := format.Render(results, job.Format)
	if err != nil {
		return report, fmt.Errorf("failed to render results: %w", err)
	}

	out := job.OutputPath
	if out == "" {
		out = o.paths.ResolveBatch(results, job.Format, job.ID)
	}
	// The batch file is written even after cancellation so partial results survive.
	if err := o.storage.Save(context.WithoutCancel(ctx), out, data); err != nil {
		return report, fmt.Errorf("failed to save output: %w", err)
	}
	report.OutputPath = out
	log.WithField("path", out).Info("Saved batch output")

	if job.Split || job.DownloadMedia {
		o.saveTweets(ctx, job, report, log)
	}

	report.CompletedAt = time.Now().UTC()
	return report, nil
}

// saveTweets writes per-tweet files and media. A failure on one file is
// recorded in the report and the rest continue.
func (o *Orchestrator) saveTweets(ctx context.Context, job domain.ScrapeJob, report *Report, log *logrus.Entry) {
	for _, r := range report.Results {
		if !r.Success || r.Data == nil {
			continue
		}
		tweetPath := o.paths.Resolve(r.Data, job.Format, "")

		// a single-tweet batch already lives at its per-tweet path
		if job.Split && tweetPath != report.OutputPath {
			data, err := renderOne(r, job.Format)
			if err == nil {
				err = o.storage.Save(ctx, tweetPath, data)
			}
			if err != nil {
				log.WithFields(logrus.Fields{"url": r.URL, "error": err}).Error("Failed to save tweet")
				report.SaveErrors = append(report.SaveErrors, err)
				continue
			}
			report.SplitPaths = append(report.SplitPaths, tweetPath)
		}

		if job.DownloadMedia {
			o.saveMedia(ctx, tweetPath, r.Data, report, log)
		}
	}
}

func (o *Orchestrator) saveMedia(ctx context.Context, tweetPath string, rec *domain.TweetRecord, report *Report, log *logrus.Entry) {
	if o.downloader == nil {
		return
	}
	download := func(kind string, i int, mediaURL string) {
		dest := o.paths.MediaPath(tweetPath, kind, i, mediaURL)
		entry := log.WithFields(logrus.Fields{"tweet_id": rec.ID, "media": mediaURL})

		body, err := o.downloader.Download(ctx, mediaURL)
		if err != nil {
			entry.WithField("error", err).Warn("Failed to download media")
			report.SaveErrors = append(report.SaveErrors, err)
			return
		}
		defer body.Close()

		if err := o.storage.SaveStream(ctx, dest, body); err != nil {
			entry.WithField("error", err).Warn("Failed to save media")
			report.SaveErrors = append(report.SaveErrors, err)
			return
		}
		report.MediaFiles = append(report.MediaFiles, dest)
		entry.WithField("path", dest).Debug("Saved media")
	}

	for i, u := range rec.Images {
		if ctx.Err() != nil {
			return
		}
		download("image", i+1, u)
	}
	for i, u := range rec.Videos {
		if ctx.Err() != nil {
			return
		}
		download("video", i+1, u)
	}
}

func renderOne(r domain.FetchResult, f domain.Format) ([]byte, error) {
	if f == domain.FormatMarkdown {
		return []byte(format.Single(r)), nil
	}
	return format.Record(r.Data)
}
