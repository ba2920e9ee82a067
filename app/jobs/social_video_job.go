package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/site"
)

type SocialVideoJob struct {
	Job
	generator       content.Generator
	socialPublisher content.SocialPublisher
	siteRepo        database.SiteRepository
}

func NewSocialVideoJob(siteName, userID string, source site.SourceResult, scheduleID string, generator content.Generator, socialPublisher content.SocialPublisher, siteRepo database.SiteRepository, status *StatusStore) *SocialVideoJob {
	return &SocialVideoJob{
		Job:             NewJob(site.ClassSocialVideo, siteName, userID, source, scheduleID, status),
		generator:       generator,
		socialPublisher: socialPublisher,
		siteRepo:        siteRepo,
	}
}

func (j *SocialVideoJob) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s, err := j.siteRepo.GetSite(j.SiteName)
	if err != nil {
		return j.fail(err, "failed to load site")
	}

	if err := j.advance(StateGenerating); err != nil {
		return err
	}

	mediaResult, err := j.generator.GenerateSocialVideo(ctx, j.Source.Topic, s)
	if err != nil {
		return j.fail(err, "failed to generate social video")
	}
	if err := j.charge(mediaResult.Provider, mediaResult.Cost); err != nil {
		return j.fail(err, "failed to record video cost")
	}

	autoPublish := s.SocialVideo.AutoPublish

	var fanOutResults []site.FanOutResult
	if autoPublish {
		if err := j.advance(StatePublishing); err != nil {
			return err
		}

		var fanOutErr error
		fanOutResults, fanOutErr = fanOut(ctx, j.socialPublisher, s, site.VideoPlatforms, mediaResult.Caption, mediaResult.MediaURL)
		if fanOutErr != nil {
			slog.Warn("Social video fan-out had failures", "id", j.ID, "site", j.SiteName, "error", fanOutErr)
		}
	}

	if err := j.advance(StateRecording); err != nil {
		return err
	}

	now := time.Now().UTC()
	err = j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.History = append(cur.History, site.PostHistoryItem{
			ID:       uuid.NewString(),
			Topic:    j.Source.Topic,
			Date:     now,
			Type:     site.ClassSocialVideo,
			Caption:  mediaResult.Caption,
			MediaURL: mediaResult.MediaURL,
			FanOut:   fanOutResults,
		})
		cur.SocialVideo.LastRun = &now
		cur.StampSchedule(site.ClassSocialVideo, j.ScheduleID, now)
		if autoPublish {
			site.ConsumeSource(cur, j.Source)
		}
		return nil
	})
	if err != nil {
		return j.fail(err, "failed to record social video")
	}

	if err := j.advance(StateDone); err != nil {
		return err
	}

	slog.Info("Job completed",
		"type", "SocialVideo",
		"id", j.ID,
		"site", j.SiteName,
		"topic", j.Source.Topic,
		"duration", j.GetDuration(),
		"destinations", len(fanOutResults))

	return nil
}

func (j *SocialVideoJob) charge(provider string, cost float64) error {
	if provider == "" || cost <= 0 {
		return nil
	}

	return j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.AddUsage(provider, cost)
		return nil
	})
}
