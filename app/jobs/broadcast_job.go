package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/site"
	"github.com/dotunfolarin/pressflow/app/sources"
)

// BroadcastJob watches a live-video feed for newly completed broadcasts and
// runs the analysis pipeline on the first unseen one. Its progress is
// persisted on the site as a broadcast state, so a crashed run resumes from
// the last processed video rather than re-analyzing it.
type BroadcastJob struct {
	Job
	generator content.Generator
	resolver  *sources.Resolver
	siteRepo  database.SiteRepository
}

func NewBroadcastJob(siteName, userID string, generator content.Generator, resolver *sources.Resolver, siteRepo database.SiteRepository, status *StatusStore) *BroadcastJob {
	return &BroadcastJob{
		Job:       NewJob(site.ClassBroadcast, siteName, userID, site.SourceResult{}, "", status),
		generator: generator,
		resolver:  resolver,
		siteRepo:  siteRepo,
	}
}

func (j *BroadcastJob) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s, err := j.siteRepo.GetSite(j.SiteName)
	if err != nil {
		return j.fail(err, "failed to load site")
	}

	if !s.Broadcast.Enabled {
		slog.Debug("Broadcast automation disabled, skipping", "site", j.SiteName)
		return nil
	}

	if err := j.advance(StateGenerating); err != nil {
		return err
	}

	if err := j.setBroadcastState(site.BroadcastMonitoring); err != nil {
		return j.fail(err, "failed to persist monitoring state")
	}

	feedURL := s.Broadcast.FeedURL
	if feedURL == "" {
		return j.failBroadcast(s, fmt.Errorf("no feed url configured"), "broadcast feed missing")
	}

	item, err := j.resolver.LatestFeedItem(ctx, feedURL)
	if err != nil {
		return j.failBroadcast(s, err, "failed to check broadcast feed")
	}

	// Re-checking the last processed video id makes the whole pipeline
	// idempotent: a retried or duplicated job sees the id already recorded
	// and goes back to idle without repeating the analysis.
	if item == nil || item.GUID == s.Broadcast.LastProcessedVideoID {
		if err := j.setBroadcastState(site.BroadcastIdle); err != nil {
			return j.fail(err, "failed to persist idle state")
		}
		if err := j.advance(StateRecording); err != nil {
			return err
		}
		if err := j.advance(StateDone); err != nil {
			return err
		}
		slog.Debug("No new broadcast found", "site", j.SiteName)
		return nil
	}

	if err := j.setBroadcastState(site.BroadcastProcessing); err != nil {
		return j.fail(err, "failed to persist processing state")
	}

	analysis, err := j.generator.AnalyzeBroadcast(ctx, item.Title, item.Link, s)
	if err != nil {
		return j.failBroadcast(s, err, "failed to analyze broadcast")
	}
	if err := j.charge(analysis.Provider, analysis.Cost); err != nil {
		return j.fail(err, "failed to record analysis cost")
	}

	if err := j.setBroadcastState(site.BroadcastScheduling); err != nil {
		return j.fail(err, "failed to persist scheduling state")
	}

	if err := j.advance(StateRecording); err != nil {
		return err
	}

	err = j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.Broadcast.LastProcessedVideoID = item.GUID
		cur.Broadcast.LastTopic = analysis.Topic
		cur.Broadcast.LastError = ""
		cur.Broadcast.State = site.BroadcastComplete
		return nil
	})
	if err != nil {
		return j.fail(err, "failed to record broadcast result")
	}

	if err := j.advance(StateDone); err != nil {
		return err
	}

	slog.Info("Job completed",
		"type", "Broadcast",
		"id", j.ID,
		"site", j.SiteName,
		"video", item.GUID,
		"topic", analysis.Topic,
		"duration", j.GetDuration())

	return nil
}

func (j *BroadcastJob) setBroadcastState(state site.BroadcastState) error {
	return j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.Broadcast.State = state
		return nil
	})
}

// failBroadcast persists the error on the broadcast automation before
// failing the job, so operators see the cause on the site itself.
func (j *BroadcastJob) failBroadcast(s *site.Site, cause error, context string) error {
	err := j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.Broadcast.State = site.BroadcastError
		cur.Broadcast.LastError = cause.Error()
		return nil
	})
	if err != nil {
		slog.Error("Failed to persist broadcast error state", "site", j.SiteName, "error", err)
	}

	return j.fail(cause, context)
}

func (j *BroadcastJob) charge(provider string, cost float64) error {
	if provider == "" || cost <= 0 {
		return nil
	}

	return j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.AddUsage(provider, cost)
		return nil
	})
}
