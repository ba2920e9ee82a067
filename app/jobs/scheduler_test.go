package jobs

import (
	"context"
	"net/http"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/dotunfolarin/pressflow/app/cfg"
	"github.com/dotunfolarin/pressflow/app/site"
	"github.com/dotunfolarin/pressflow/app/sources"
)

func TestClassDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	stale := now.Add(-25 * time.Hour)

	s := &site.Site{}
	if !classDue(s, site.ClassBlog, now) {
		t.Error("Expected blog due when never run")
	}

	s.LastAutoPilotRun = &recent
	if classDue(s, site.ClassBlog, now) {
		t.Error("Expected blog not due 2h after a run")
	}

	s.LastAutoPilotRun = &stale
	if !classDue(s, site.ClassBlog, now) {
		t.Error("Expected blog due 25h after a run")
	}

	s.Email.LastRun = &recent
	if classDue(s, site.ClassEmail, now) {
		t.Error("Expected email not due 2h after a run")
	}

	// Broadcast monitoring runs every tick regardless of last run.
	if !classDue(s, site.ClassBroadcast, now) {
		t.Error("Expected broadcast always due")
	}
}

func TestSchedulerEnqueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Scheduler{
		status: NewStatusStore(),
		queues: map[site.AutomationClass]*queue{
			site.ClassBlog: newQueue(site.ClassBlog, cfg.QueueCfg{Concurrency: 1, RateMax: 10, RateWindowMs: 1000}),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	job := NewBlogJob("acme-blog", "user-1", keywordSource("Topic", "topic"), "", &fakeGenerator{}, &fakePublisher{}, newMemoryRepo(blogSite()), s.status)

	if err := s.Enqueue(job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	emailJob := NewEmailJob("acme-blog", "user-1", keywordSource("Topic", "topic"), "", &fakeGenerator{}, &fakeEmailPublisher{}, newMemoryRepo(blogSite()), s.status)
	if err := s.Enqueue(emailJob); err == nil {
		t.Error("Expected error enqueuing to a class without a queue")
	}
}

func TestNewQueueRateLimiter(t *testing.T) {
	q := newQueue(site.ClassBlog, cfg.QueueCfg{Concurrency: 2, RateMax: 50, RateWindowMs: 60000})

	if q.concurrency != 2 {
		t.Errorf("Expected concurrency 2, got %d", q.concurrency)
	}

	// 50 per 60s window means one token every 1.2s.
	expected := rate.Every(1200 * time.Millisecond)
	if q.limiter.Limit() != expected {
		t.Errorf("Expected limit %v, got %v", expected, q.limiter.Limit())
	}
	if q.limiter.Burst() != 50 {
		t.Errorf("Expected burst 50, got %d", q.limiter.Burst())
	}
}

func TestNewQueueToleratesZeroRate(t *testing.T) {
	q := newQueue(site.ClassBlog, cfg.QueueCfg{Concurrency: 0, RateMax: 0, RateWindowMs: 60000})

	if q.limiter.Limit() != rate.Inf {
		t.Errorf("Expected unlimited rate for zero rate-max, got %v", q.limiter.Limit())
	}
	if q.concurrency != 1 {
		t.Errorf("Expected concurrency floored to 1, got %d", q.concurrency)
	}

	q = newQueue(site.ClassEmail, cfg.QueueCfg{Concurrency: 2, RateMax: 20, RateWindowMs: 0})
	if q.limiter.Limit() != rate.Inf {
		t.Errorf("Expected unlimited rate for zero window, got %v", q.limiter.Limit())
	}
}

func TestBuildJobCarriesScheduleID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newMemoryRepo(blogSite())

	s := &Scheduler{
		siteRepo:  repo,
		resolver:  sources.NewResolver(http.DefaultClient, "test-agent"),
		generator: &fakeGenerator{},
		publisher: &fakePublisher{},
		status:    NewStatusStore(),
		ctx:       ctx,
		cancel:    cancel,
	}

	siteData, err := repo.GetSite("acme-blog")
	if err != nil {
		t.Fatalf("GetSite failed: %v", err)
	}

	job, err := s.BuildJob(site.ClassBlog, siteData, "sched-1")
	if err != nil {
		t.Fatalf("BuildJob failed: %v", err)
	}

	blogJob, ok := job.(*BlogJob)
	if !ok {
		t.Fatalf("Expected *BlogJob, got %T", job)
	}
	if blogJob.ScheduleID != "sched-1" {
		t.Errorf("Expected schedule id carried into the job, got %q", blogJob.ScheduleID)
	}
}

func TestSchedulerWorkerProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	repo := newMemoryRepo(blogSite())
	q := newQueue(site.ClassBlog, cfg.QueueCfg{Concurrency: 1, RateMax: 100, RateWindowMs: 1000})

	s := &Scheduler{
		siteRepo: repo,
		status:   NewStatusStore(),
		queues:   map[site.AutomationClass]*queue{site.ClassBlog: q},
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.worker(q, 0)

	job := NewBlogJob("acme-blog", "user-1", keywordSource("Ai Trends", "ai trends"), "", &fakeGenerator{}, &fakePublisher{}, repo, s.status)
	if err := s.Enqueue(job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		updated, err := repo.GetSite("acme-blog")
		if err != nil {
			t.Fatalf("GetSite failed: %v", err)
		}
		if len(updated.History) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for worker to process job")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	s.wg.Wait()
}
