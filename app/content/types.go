package content

import (
	"github.com/dotunfolarin/pressflow/app/site"
)

// Brief is the strategic plan an article is generated from.
type Brief struct {
	Topic        string `json:"topic"`
	Summary      string `json:"summary"`
	Outline      string `json:"outline"`
	ImagePrompt  string `json:"imagePrompt"`
	FocusKeyword string `json:"focusKeyword"`
}

// Post is a generated article ready for publishing or drafting.
type Post struct {
	Title            string `json:"title"`
	Body             string `json:"body"`
	FeaturedImageURL string `json:"featuredImageUrl,omitempty"`
}

// BriefResult carries per-provider costs since strategy generation can span
// multiple providers in one call.
type BriefResult struct {
	Brief Brief              `json:"brief"`
	Costs map[string]float64 `json:"costsByProvider"`
}

type ArticleResult struct {
	Post     Post    `json:"post"`
	Cost     float64 `json:"cost"`
	Provider string  `json:"provider"`
}

type ImageResult struct {
	ImageURL string  `json:"imageUrl"`
	Cost     float64 `json:"cost"`
	Provider string  `json:"provider"`
}

type EnrichResult struct {
	Body        string  `json:"body"`
	ImagesAdded int     `json:"imagesAdded"`
	Cost        float64 `json:"cost"`
	Provider    string  `json:"provider"`
}

type SocialPostsResult struct {
	Posts    map[site.Platform]string `json:"postsByPlatform"`
	Cost     float64                  `json:"cost"`
	Provider string                   `json:"provider"`
}

// MediaResult is a generated social graphic or video with its caption.
type MediaResult struct {
	MediaURL string  `json:"mediaUrl"`
	Caption  string  `json:"caption"`
	Cost     float64 `json:"cost"`
	Provider string  `json:"provider"`
}

type EmailResult struct {
	Subject  string  `json:"subject"`
	Body     string  `json:"body"`
	Cost     float64 `json:"cost"`
	Provider string  `json:"provider"`
}

// BroadcastAnalysis is the topic analysis of a completed live video,
// produced with search grounding.
type BroadcastAnalysis struct {
	Topic    string  `json:"topic"`
	Summary  string  `json:"summary"`
	Cost     float64 `json:"cost"`
	Provider string  `json:"provider"`
}
