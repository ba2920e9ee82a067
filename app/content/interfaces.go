package content

import (
	"context"

	"github.com/dotunfolarin/pressflow/app/site"
)

// Generator produces strategy briefs, articles, media and captions. Every call
// is a network round-trip and returns cost/provenance metadata for the site's
// usage ledger.
type Generator interface {
	GenerateBrief(ctx context.Context, topic string, s *site.Site) (*BriefResult, error)
	GenerateArticle(ctx context.Context, brief *Brief, s *site.Site) (*ArticleResult, error)
	GenerateImage(ctx context.Context, prompt string, s *site.Site) (*ImageResult, error)
	EnrichWithImages(ctx context.Context, post *Post, s *site.Site) (*EnrichResult, error)
	GenerateSocialPosts(ctx context.Context, post *Post, publishedURL string, s *site.Site) (*SocialPostsResult, error)
	GenerateSocialGraphic(ctx context.Context, topic string, s *site.Site) (*MediaResult, error)
	GenerateSocialVideo(ctx context.Context, topic string, s *site.Site) (*MediaResult, error)
	GenerateEmail(ctx context.Context, topic string, s *site.Site) (*EmailResult, error)
	AnalyzeBroadcast(ctx context.Context, videoTitle, videoURL string, s *site.Site) (*BroadcastAnalysis, error)
}

// Publisher pushes a finished post to the site's WordPress installation.
// The idempotency key is persisted by the caller before the call; publishing
// the same key twice must not create a second post.
type Publisher interface {
	PublishPost(ctx context.Context, s *site.Site, post *Post, focusKeyword, idempotencyKey string) (string, error)
}

// SocialPublisher posts content to a single destination account.
type SocialPublisher interface {
	PostToSocial(ctx context.Context, platform site.Platform, account site.DestinationAccount, text, mediaURL string) error
}

// EmailPublisher sends a campaign through the site's email provider.
type EmailPublisher interface {
	SendCampaign(ctx context.Context, subject, body string, s *site.Site) error
}
