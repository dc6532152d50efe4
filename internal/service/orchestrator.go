package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"xscraper/internal/core/domain"
	"xscraper/internal/core/ports"
	"xscraper/internal/xurl"
)

// Orchestrator coordinates fetching, mapping and saving tweets.
type Orchestrator struct {
	fetcher    ports.TweetFetcher
	storage    ports.Storage
	paths      ports.PathResolver
	downloader ports.MediaDownloader
	logger     *logrus.Logger
	limiter    *rate.Limiter
	sleep      func(context.Context, time.Duration) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSpawnRate limits how many external processes start per second.
// Zero means unlimited.
func WithSpawnRate(perSecond float64) Option {
	return func(o *Orchestrator) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// NewOrchestrator creates a new Orchestrator. downloader may be nil when media
// downloads are never requested.
func NewOrchestrator(
	fetcher ports.TweetFetcher,
	storage ports.Storage,
	paths ports.PathResolver,
	downloader ports.MediaDownloader,
	logger *logrus.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		fetcher:    fetcher,
		storage:    storage,
		paths:      paths,
		downloader: downloader,
		logger:     logger,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewJob fills in a job ID and creation time.
func NewJob(urls []string) domain.ScrapeJob {
	return domain.ScrapeJob{
		ID:          uuid.New().String(),
		URLs:        urls,
		Format:      domain.FormatJSON,
		Parallelism: 1,
		AuthPolicy:  domain.AuthFailSoft,
		BackoffMax:  DefaultBackoffMax,
		CreatedAt:   time.Now().UTC(),
	}
}

// ScrapeAll fetches every URL of the job with a fixed pool of workers.
// The returned slice always has one entry per input URL, in input order.
// On cancellation, entries that didn't finish are failures.
func (o *Orchestrator) ScrapeAll(ctx context.Context, job domain.ScrapeJob) []domain.FetchResult {
	n := len(job.URLs)
	results := make([]domain.FetchResult, n)
	if n == 0 {
		return results
	}

	workers := job.Parallelism
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	log := o.logger.WithField("run_id", job.ID)
	log.WithFields(logrus.Fields{
		"urls":    n,
		"workers": workers,
		"retries": job.MaxRetries,
	}).Info("Starting batch")

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	policy := PolicyFor(job)
	filled := make([]bool, n)
	var (
		authAbort atomic.Bool
		completed atomic.Int64
		wg        sync.WaitGroup
	)

	queue := make(chan int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range queue {
				if batchCtx.Err() != nil {
					continue
				}
				res := o.fetch(batchCtx, job.URLs[i], policy, log.WithField("worker_id", workerID))
				if res.Kind == domain.KindCancelled {
					continue
				}
				results[i] = res
				filled[i] = true

				if res.Kind == domain.KindAuthFailure && job.AuthPolicy == domain.AuthFailFast {
					if authAbort.CompareAndSwap(false, true) {
						log.WithField("url", res.URL).Error("Authentication failed, stopping batch")
						cancel()
					}
				}
				o.logProgress(log, res, completed.Add(1), n)
			}
		}(w)
	}

enqueue:
	for i := range job.URLs {
		select {
		case queue <- i:
		case <-batchCtx.Done():
			break enqueue
		}
	}
	close(queue)
	wg.Wait()

	for i := range results {
		if filled[i] {
			continue
		}
		var err error
		if authAbort.Load() {
			err = domain.NewError(domain.KindAuthFailure, "skipped: authentication failed earlier in the batch", nil)
		} else {
			err = domain.NewError(domain.KindCancelled, "cancelled before completion", ctx.Err())
		}
		results[i] = domain.Failed(job.URLs[i], err, 0)
	}

	success, failed := domain.Tally(results)
	log.WithFields(logrus.Fields{
		"success": success,
		"failed":  failed,
	}).Info("Batch finished")
	return results
}

// ReadOne fetches a single URL with the given retry policy.
func (o *Orchestrator) ReadOne(ctx context.Context, url string, policy RetryPolicy) domain.FetchResult {
	return o.fetch(ctx, url, policy, o.logger.WithField("url", url))
}

// ReadRaw returns the external tool's output without mapping it.
func (o *Orchestrator) ReadRaw(ctx context.Context, url string, policy RetryPolicy) ([]byte, error) {
	var raw []byte
	_, err := o.retry(ctx, policy, o.logger.WithField("url", url), func() error {
		var err error
		raw, err = o.fetcher.FetchTweet(ctx, xurl.Normalize(url))
		return err
	})
	return raw, err
}

func (o *Orchestrator) fetch(ctx context.Context, url string, policy RetryPolicy, log *logrus.Entry) domain.FetchResult {
	normalized := xurl.Normalize(url)
	log = log.WithField("url", normalized)

	var rec *domain.TweetRecord
	attempts, err := o.retry(ctx, policy, log, func() error {
		raw, err := o.fetcher.FetchTweet(ctx, normalized)
		if err != nil {
			return err
		}
		rec, err = o.fetcher.MapRecord(raw, normalized)
		return err
	})
	if err != nil {
		return domain.Failed(url, err, attempts)
	}
	return domain.Succeeded(url, rec, attempts)
}

func (o *Orchestrator) logProgress(log *logrus.Entry, res domain.FetchResult, done int64, total int) {
	entry := log.WithFields(logrus.Fields{
		"url":       res.URL,
		"attempts":  res.Attempts,
		"completed": done,
		"total":     total,
	})
	if res.Success {
		entry.WithFields(logrus.Fields{
			"tweet_id": res.Data.ID,
			"images":   len(res.Data.Images),
			"videos":   len(res.Data.Videos),
		}).Info("Tweet scraped")
		return
	}
	entry.WithFields(logrus.Fields{
		"kind":  res.Kind,
		"error": res.Error,
	}).Warn("Tweet failed")
}
