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

type EmailJob struct {
	Job
	generator      content.Generator
	emailPublisher content.EmailPublisher
	siteRepo       database.SiteRepository
}

func NewEmailJob(siteName, userID string, source site.SourceResult, scheduleID string, generator content.Generator, emailPublisher content.EmailPublisher, siteRepo database.SiteRepository, status *StatusStore) *EmailJob {
	return &EmailJob{
		Job:            NewJob(site.ClassEmail, siteName, userID, source, scheduleID, status),
		generator:      generator,
		emailPublisher: emailPublisher,
		siteRepo:       siteRepo,
	}
}

func (j *EmailJob) Execute(ctx context.Context) error {

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

	emailResult, err := j.generator.GenerateEmail(ctx, j.Source.Topic, s)
	if err != nil {
		return j.fail(err, "failed to generate email")
	}
	if err := j.charge(emailResult.Provider, emailResult.Cost); err != nil {
		return j.fail(err, "failed to record email cost")
	}

	if err := j.advance(StatePublishing); err != nil {
		return err
	}

	// A failed send leaves no history entry and keeps the source item
	// available, so the campaign is regenerated and retried from scratch.
	if err := j.emailPublisher.SendCampaign(ctx, emailResult.Subject, emailResult.Body, s); err != nil {
		return j.fail(err, "failed to send campaign")
	}

	if err := j.advance(StateRecording); err != nil {
		return err
	}

	now := time.Now().UTC()
	err = j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.History = append(cur.History, site.PostHistoryItem{
			ID:      uuid.NewString(),
			Topic:   j.Source.Topic,
			Date:    now,
			Type:    site.ClassEmail,
			Subject: emailResult.Subject,
			Content: emailResult.Body,
		})
		cur.Email.LastRun = &now
		cur.StampSchedule(site.ClassEmail, j.ScheduleID, now)
		site.ConsumeSource(cur, j.Source)
		return nil
	})
	if err != nil {
		return j.fail(err, "failed to record campaign")
	}

	if err := j.advance(StateDone); err != nil {
		return err
	}

	slog.Info("Job completed",
		"type", "Email",
		"id", j.ID,
		"site", j.SiteName,
		"topic", j.Source.Topic,
		"duration", j.GetDuration())

	return nil
}

func (j *EmailJob) charge(provider string, cost float64) error {
	if provider == "" || cost <= 0 {
		return nil
	}

	return j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.AddUsage(provider, cost)
		return nil
	})
}
