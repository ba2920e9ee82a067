package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/site"
)

type BlogJob struct {
	Job
	generator content.Generator
	publisher content.Publisher
	siteRepo  database.SiteRepository
}

func NewBlogJob(siteName, userID string, source site.SourceResult, scheduleID string, generator content.Generator, publisher content.Publisher, siteRepo database.SiteRepository, status *StatusStore) *BlogJob {
	return &BlogJob{
		Job:       NewJob(site.ClassBlog, siteName, userID, source, scheduleID, status),
		generator: generator,
		publisher: publisher,
		siteRepo:  siteRepo,
	}
}

func (j *BlogJob) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s, err := j.siteRepo.GetSite(j.SiteName)
	if err != nil {
		return j.fail(err, "failed to load site")
	}

	if err := j.advance(StateStrategizing); err != nil {
		return err
	}

	briefResult, err := j.generator.GenerateBrief(ctx, j.Source.Topic, s)
	if err != nil {
		return j.fail(err, "failed to generate brief")
	}
	for provider, cost := range briefResult.Costs {
		if err := j.charge(provider, cost); err != nil {
			return j.fail(err, "failed to record brief cost")
		}
	}

	if err := j.advance(StateGenerating); err != nil {
		return err
	}

	articleResult, err := j.generator.GenerateArticle(ctx, &briefResult.Brief, s)
	if err != nil {
		return j.fail(err, "failed to generate article")
	}
	if err := j.charge(articleResult.Provider, articleResult.Cost); err != nil {
		return j.fail(err, "failed to record article cost")
	}

	post := articleResult.Post

	imageResult, err := j.generator.GenerateImage(ctx, briefResult.Brief.ImagePrompt, s)
	if err != nil {
		return j.fail(err, "failed to generate featured image")
	}
	if err := j.charge(imageResult.Provider, imageResult.Cost); err != nil {
		return j.fail(err, "failed to record image cost")
	}
	post.FeaturedImageURL = imageResult.ImageURL

	if s.InPostImagesEnabled {
		enrichResult, err := j.generator.EnrichWithImages(ctx, &post, s)
		if err != nil {
			return j.fail(err, "failed to enrich post with images")
		}
		if err := j.charge(enrichResult.Provider, enrichResult.Cost); err != nil {
			return j.fail(err, "failed to record enrichment cost")
		}
		post.Body = enrichResult.Body
	}

	if s.IsAutoPublishEnabled {
		err = j.publishAndRecord(ctx, s, &post, &briefResult.Brief)
	} else {
		err = j.draftAndRecord(&post, &briefResult.Brief)
	}
	if err != nil {
		return err
	}

	if err := j.advance(StateDone); err != nil {
		return err
	}

	slog.Info("Job completed",
		"type", "Blog",
		"id", j.ID,
		"site", j.SiteName,
		"topic", j.Source.Topic,
		"duration", j.GetDuration(),
		"published", s.IsAutoPublishEnabled)

	return nil
}

func (j *BlogJob) publishAndRecord(ctx context.Context, s *site.Site, post *content.Post, brief *content.Brief) error {
	if err := j.advance(StatePublishing); err != nil {
		return err
	}

	key, err := j.ensurePublishKey()
	if err != nil {
		return j.fail(err, "failed to persist publish key")
	}

	publishedURL, err := j.publisher.PublishPost(ctx, s, post, brief.FocusKeyword, key)
	if err != nil {
		return j.fail(err, "failed to publish post")
	}

	var socialPosts map[site.Platform]string
	if s.OmnipresenceEnabled {
		socialResult, err := j.generator.GenerateSocialPosts(ctx, post, publishedURL, s)
		if err != nil {
			return j.fail(err, "failed to generate social posts")
		}
		if err := j.charge(socialResult.Provider, socialResult.Cost); err != nil {
			return j.fail(err, "failed to record social posts cost")
		}
		socialPosts = socialResult.Posts
	}

	if err := j.advance(StateRecording); err != nil {
		return err
	}

	now := time.Now().UTC()
	err = j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.History = append(cur.History, site.PostHistoryItem{
			ID:          uuid.NewString(),
			Topic:       j.Source.Topic,
			URL:         publishedURL,
			Date:        now,
			Type:        site.ClassBlog,
			Content:     post.Body,
			ImageURL:    post.FeaturedImageURL,
			SocialPosts: socialPosts,
		})
		cur.LastAutoPilotRun = &now
		cur.StampSchedule(site.ClassBlog, j.ScheduleID, now)
		site.ConsumeSource(cur, j.Source)
		cur.ClearPendingPublish(j.ID)
		return nil
	})
	if err != nil {
		return j.fail(err, "failed to record published post")
	}

	return nil
}

func (j *BlogJob) draftAndRecord(post *content.Post, brief *content.Brief) error {
	if err := j.advance(StateDrafting); err != nil {
		return err
	}
	if err := j.advance(StateRecording); err != nil {
		return err
	}

	// Drafts do not consume the source item: the topic stays available
	// until a draft is actually published.
	now := time.Now().UTC()
	err := j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.Drafts = append(cur.Drafts, site.Draft{
			ID:        uuid.NewString(),
			Topic:     j.Source.Topic,
			Brief:     brief.Summary,
			Content:   post.Body,
			ImageURL:  post.FeaturedImageURL,
			CreatedAt: now,
		})
		cur.LastAutoPilotRun = &now
		cur.StampSchedule(site.ClassBlog, j.ScheduleID, now)
		return nil
	})
	if err != nil {
		return j.fail(err, "failed to record draft")
	}

	return nil
}

// ensurePublishKey persists an idempotency key for this job before the
// publish call goes out. A retried job finds its previous key and reuses it,
// so a publish that succeeded right before a crash is not repeated.
func (j *BlogJob) ensurePublishKey() (string, error) {
	var key string

	err := j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		if existing := cur.FindPendingPublish(j.ID); existing != nil {
			key = existing.Key
			return nil
		}

		key = uuid.NewString()
		cur.PendingPublishes = append(cur.PendingPublishes, site.PendingPublish{
			Key:       key,
			JobID:     j.ID,
			Topic:     j.Source.Topic,
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	return key, nil
}

func (j *BlogJob) charge(provider string, cost float64) error {
	if provider == "" || cost <= 0 {
		return nil
	}

	err := j.siteRepo.UpdateSite(j.SiteName, func(cur *site.Site) error {
		cur.AddUsage(provider, cost)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record usage for %s: %w", provider, err)
	}

	return nil
}
