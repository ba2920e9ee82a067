package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dotunfolarin/pressflow/app/cfg"
	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/site"
	"github.com/dotunfolarin/pressflow/app/sources"
)

var _ JobSchedulerInterface = (*Scheduler)(nil)

// automationCadence is how long after a successful run a class becomes due
// again. Recurring schedules refine when within the day a run happens; the
// cadence keeps a class from running more than once per day regardless.
const automationCadence = 24 * time.Hour

const jobTimeout = 10 * time.Minute

type queue struct {
	class       site.AutomationClass
	jobs        chan JobInterface
	limiter     *rate.Limiter
	concurrency int
}

func newQueue(class site.AutomationClass, qc cfg.QueueCfg) *queue {
	// A non-positive rate or window disables the limiter rather than
	// dividing by zero below.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if qc.RateMax > 0 && qc.RateWindowMs > 0 {
		window := time.Duration(qc.RateWindowMs) * time.Millisecond
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(qc.RateMax)), qc.RateMax)
	}

	concurrency := qc.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &queue{
		class:       class,
		jobs:        make(chan JobInterface, 100),
		limiter:     limiter,
		concurrency: concurrency,
	}
}

type Scheduler struct {
	siteRepo        database.SiteRepository
	resolver        *sources.Resolver
	generator       content.Generator
	publisher       content.Publisher
	socialPublisher content.SocialPublisher
	emailPublisher  content.EmailPublisher
	status          *StatusStore
	interval        time.Duration
	queues          map[site.AutomationClass]*queue
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

func NewScheduler(siteRepo database.SiteRepository, resolver *sources.Resolver, generator content.Generator,
	publisher content.Publisher, socialPublisher content.SocialPublisher, emailPublisher content.EmailPublisher,
	status *StatusStore) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		siteRepo:        siteRepo,
		resolver:        resolver,
		generator:       generator,
		publisher:       publisher,
		socialPublisher: socialPublisher,
		emailPublisher:  emailPublisher,
		status:          status,
		interval:        time.Duration(cfg.SchedulerInterval) * time.Second,
		queues: map[site.AutomationClass]*queue{
			site.ClassBlog:          newQueue(site.ClassBlog, cfg.BlogQueue),
			site.ClassSocialGraphic: newQueue(site.ClassSocialGraphic, cfg.SocialGraphicQueue),
			site.ClassSocialVideo:   newQueue(site.ClassSocialVideo, cfg.SocialVideoQueue),
			site.ClassEmail:         newQueue(site.ClassEmail, cfg.EmailQueue),
			site.ClassBroadcast:     newQueue(site.ClassBroadcast, cfg.BroadcastQueue),
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() {
	for _, q := range s.queues {
		for i := 0; i < q.concurrency; i++ {
			s.wg.Add(1)
			go s.worker(q, i)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueJobs()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueJobs()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	for _, q := range s.queues {
		close(q.jobs)
	}
}

func (s *Scheduler) Enqueue(job JobInterface) error {
	q, ok := s.queues[job.GetClass()]
	if !ok {
		return fmt.Errorf("no queue for class %s", job.GetClass())
	}

	select {
	case q.jobs <- job:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("%s queue is full", job.GetClass())
	}
}

func (s *Scheduler) enqueueDueJobs() {
	records, err := s.siteRepo.ListSites()
	if err != nil {
		slog.Warn("Failed to list sites for scheduling", "error", err)
		return
	}
	if len(records) == 0 {
		slog.Debug("No sites registered")
		return
	}

	slog.Debug("Checking sites for due automations", "count", len(records))

	now := time.Now().UTC()

	for _, record := range records {
		siteData, err := s.siteRepo.GetSite(record.Name)
		if err != nil {
			slog.Warn("Failed to load site, skipping", "site", record.Name, "error", err)
			continue
		}

		readiness := site.CheckAutomationReadiness(siteData)

		for _, class := range []site.AutomationClass{site.ClassBlog, site.ClassSocialGraphic, site.ClassSocialVideo, site.ClassEmail, site.ClassBroadcast} {
			if !readiness.ForClass(class) {
				continue
			}
			if !classDue(siteData, class, now) {
				continue
			}

			job, err := s.BuildJob(class, siteData, "")
			if err != nil {
				slog.Warn("Failed to build job", "site", record.Name, "class", string(class), "error", err)
				continue
			}

			if err := s.Enqueue(job); err != nil {
				slog.Warn("Failed to enqueue job", "site", record.Name, "class", string(class), "error", err)
			}
		}
	}
}

// classDue reports whether a class's last run is old enough for another run.
// Broadcast monitoring runs every tick; the job itself detects whether a new
// video exists.
func classDue(s *site.Site, class site.AutomationClass, now time.Time) bool {
	var lastRun *time.Time

	switch class {
	case site.ClassBlog:
		lastRun = s.LastAutoPilotRun
	case site.ClassSocialGraphic:
		lastRun = s.SocialGraphic.LastRun
	case site.ClassSocialVideo:
		lastRun = s.SocialVideo.LastRun
	case site.ClassEmail:
		lastRun = s.Email.LastRun
	case site.ClassBroadcast:
		return true
	}

	return lastRun == nil || now.Sub(*lastRun) >= automationCadence
}

// BuildJob resolves the class's source and constructs the matching job. The
// API uses it for manual runs (carrying the request's schedule id so the
// matching recurring schedule gets its lastRun stamp); the periodic tick uses
// it for due automations.
func (s *Scheduler) BuildJob(class site.AutomationClass, siteData *site.Site, scheduleID string) (JobInterface, error) {
	if class == site.ClassBroadcast {
		return NewBroadcastJob(siteData.Name, siteData.OwnerID, s.generator, s.resolver, s.siteRepo, s.status), nil
	}

	resolveCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	source, err := s.resolver.Resolve(resolveCtx, siteData, siteData.ClassSource(class))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source: %w", err)
	}

	switch class {
	case site.ClassBlog:
		return NewBlogJob(siteData.Name, siteData.OwnerID, *source, scheduleID, s.generator, s.publisher, s.siteRepo, s.status), nil
	case site.ClassSocialGraphic:
		return NewSocialGraphicJob(siteData.Name, siteData.OwnerID, *source, scheduleID, s.generator, s.socialPublisher, s.siteRepo, s.status), nil
	case site.ClassSocialVideo:
		return NewSocialVideoJob(siteData.Name, siteData.OwnerID, *source, scheduleID, s.generator, s.socialPublisher, s.siteRepo, s.status), nil
	case site.ClassEmail:
		return NewEmailJob(siteData.Name, siteData.OwnerID, *source, scheduleID, s.generator, s.emailPublisher, s.siteRepo, s.status), nil
	}

	return nil, fmt.Errorf("unknown automation class: %s", class)
}

func (s *Scheduler) worker(q *queue, id int) {
	defer s.wg.Done()

	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			if err := q.limiter.Wait(s.ctx); err != nil {
				return
			}
			s.executeJob(q, id, job)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeJob(q *queue, workerID int, job JobInterface) {
	job.Start()

	slog.Info("Job started", "queue", string(q.class), "worker_id", workerID, "id", job.GetID(), "site", job.GetSiteName(), "retry_count", job.GetRetryCount())

	jobCtx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	err := job.Execute(jobCtx)

	if err != nil {
		slog.Error("Worker job execution failed", "queue", string(q.class), "worker_id", workerID, "id", job.GetID(), "site", job.GetSiteName(), "retry_count", job.GetRetryCount(), "error", err)

		if job.CanRetry() {
			job.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(job.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Job retry scheduled", "queue", string(q.class), "id", job.GetID(), "site", job.GetSiteName(), "retry_count", job.GetRetryCount(), "max_retries", job.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping job retry", "id", job.GetID())
					return
				default:
					if retryErr := s.Enqueue(job); retryErr != nil {
						slog.Error("Failed to re-enqueue job for retry", "id", job.GetID(), "retry_count", job.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Job failed after maximum retries", "queue", string(q.class), "id", job.GetID(), "site", job.GetSiteName(), "retry_count", job.GetRetryCount(), "max_retries", job.GetMaxRetries(), "last_error", err)
		}
	}
}
