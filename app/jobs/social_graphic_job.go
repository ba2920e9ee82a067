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

type SocialGraphicJob struct {
	Job
	generator       content.Generator
	socialPublisher content.SocialPublisher
	siteRepo        database.SiteRepository
}

func NewSocialGraphicJob(siteName, userID string, source site.SourceResult, scheduleID string, generator content.Generator, socialPublisher content.SocialPublisher, siteRepo database.SiteRepository, status *StatusStore) *SocialGraphicJob {
	return &SocialGraphicJob{
		Job:             NewJob(site.ClassSocialGraphic, siteName, userID, source, scheduleID, status),
		generator:       generator,
		socialPublisher: socialPublisher,
		siteRepo:        siteRepo,
	}
}

func (j *SocialGraphicJob) Execute(ctx context.Context) error {

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

	mediaResult, err := j.generator.GenerateSocialGraphic(ctx, j.Source.Topic, s)
	if err != nil {
		return j.fail(err, "failed to generate social graphic")
	}
	if err := j.charge(mediaResult.Provider, mediaResult.Cost); err != nil {
		return j.fail(err, "failed to record graphic cost")
	}

	autoPublish := s.SocialGraphic.AutoPublish

	var fanOutResults []site.FanOutResult
	if autoPublish {
		if err := j.advance(StatePublishing); err != nil {
			return err
		}

		var fanOutErr error
		fanOutResults, fanOutErr = fanOut(ctx, j.socialPublisher, s, site.GraphicPlatforms, mediaResult.Caption, mediaResult.MediaURL)
		if fanOutErr != nil {
			slog.Warn("Social graphic fan-out had failures", "id", j.ID, "site", j.SiteName, "error", fanOutErr)
		}
	}

	if err := j.advance(StateRecording); err != nil {
		return err
	}

	// The generated graphic is always recorded, even when some or all
	// destinations failed. The source item is only consumed when the graphic
	// was actually pushed out.
	now := time.Now().UTC()
	err = j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.History = append(cur.History, site.PostHistoryItem{
			ID:       uuid.NewString(),
			Topic:    j.Source.Topic,
			Date:     now,
			Type:     site.ClassSocialGraphic,
			Caption:  mediaResult.Caption,
			MediaURL: mediaResult.MediaURL,
			FanOut:   fanOutResults,
		})
		cur.SocialGraphic.LastRun = &now
		cur.StampSchedule(site.ClassSocialGraphic, j.ScheduleID, now)
		if autoPublish {
			site.ConsumeSource(cur, j.Source)
		}
		return nil
	})
	if err != nil {
		return j.fail(err, "failed to record social graphic")
	}

	if err := j.advance(StateDone); err != nil {
		return err
	}

	slog.Info("Job completed",
		"type", "SocialGraphic",
		"id", j.ID,
		"site", j.SiteName,
		"topic", j.Source.Topic,
		"duration", j.GetDuration(),
		"destinations", len(fanOutResults))

	return nil
}

func (j *SocialGraphicJob) charge(provider string, cost float64) error {
	if provider == "" || cost <= 0 {
		return nil
	}

	return j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.AddUsage(provider, cost)
		return nil
	})
}
