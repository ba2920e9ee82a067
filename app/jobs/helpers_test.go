package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/site"
)

// memoryRepo is an in-memory SiteRepository. Reads and writes go through a
// JSON round-trip so callers never share pointers with the stored state,
// matching the isolation the SQL-backed repository provides.
type memoryRepo struct {
	mu    sync.Mutex
	sites map[string]*site.Site
}

var _ database.SiteRepository = (*memoryRepo)(nil)

func newMemoryRepo(sites ...*site.Site) *memoryRepo {
	repo := &memoryRepo{sites: make(map[string]*site.Site)}
	for _, s := range sites {
		repo.sites[s.Name] = cloneSite(s)
	}
	return repo
}

func cloneSite(s *site.Site) *site.Site {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var clone site.Site
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(err)
	}
	return &clone
}

func (r *memoryRepo) GetSite(name string) (*site.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sites[name]
	if !ok {
		return nil, database.ErrSiteNotFound
	}
	return cloneSite(s), nil
}

func (r *memoryRepo) GetSitesByOwner(ownerID string) ([]*site.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*site.Site
	for _, s := range r.sites {
		if s.OwnerID == ownerID {
			result = append(result, cloneSite(s))
		}
	}
	return result, nil
}

func (r *memoryRepo) ListSites() ([]database.SiteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []database.SiteRecord
	for _, s := range r.sites {
		records = append(records, database.SiteRecord{Name: s.Name, OwnerID: s.OwnerID})
	}
	return records, nil
}

func (r *memoryRepo) GetSiteCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sites), nil
}

func (r *memoryRepo) RegisterSite(s *site.Site) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sites[s.Name]; ok {
		return false, nil
	}
	r.sites[s.Name] = cloneSite(s)
	return true, nil
}

func (r *memoryRepo) UpdateSite(name string, fn func(*site.Site) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sites[name]
	if !ok {
		return database.ErrSiteNotFound
	}

	updated := cloneSite(s)
	if err := fn(updated); err != nil {
		return err
	}
	r.sites[name] = updated
	return nil
}

type fakeGenerator struct {
	mu sync.Mutex

	briefErr       error
	articleErr     error
	imageErr       error
	enrichErr      error
	socialPostsErr error
	graphicErr     error
	videoErr       error
	emailErr       error
	analyzeErr     error

	briefCalls       int
	socialPostsCalls int
	analyzeCalls     int
}

var _ content.Generator = (*fakeGenerator)(nil)

func (g *fakeGenerator) GenerateBrief(ctx context.Context, topic string, s *site.Site) (*content.BriefResult, error) {
	g.mu.Lock()
	g.briefCalls++
	g.mu.Unlock()

	if g.briefErr != nil {
		return nil, g.briefErr
	}
	return &content.BriefResult{
		Brief: content.Brief{
			Topic:        topic,
			Summary:      "summary of " + topic,
			Outline:      "intro, body, outro",
			ImagePrompt:  "illustration of " + topic,
			FocusKeyword: strings.ToLower(topic),
		},
		Costs: map[string]float64{"openai": 0.01, "gemini": 0.002},
	}, nil
}

func (g *fakeGenerator) GenerateArticle(ctx context.Context, brief *content.Brief, s *site.Site) (*content.ArticleResult, error) {
	if g.articleErr != nil {
		return nil, g.articleErr
	}
	return &content.ArticleResult{
		Post:     content.Post{Title: brief.Topic, Body: "<p>article about " + brief.Topic + "</p>"},
		Cost:     0.05,
		Provider: "openai",
	}, nil
}

func (g *fakeGenerator) GenerateImage(ctx context.Context, prompt string, s *site.Site) (*content.ImageResult, error) {
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	return &content.ImageResult{ImageURL: "https://cdn.example.com/featured.png", Cost: 0.04, Provider: "openai"}, nil
}

func (g *fakeGenerator) EnrichWithImages(ctx context.Context, post *content.Post, s *site.Site) (*content.EnrichResult, error) {
	if g.enrichErr != nil {
		return nil, g.enrichErr
	}
	return &content.EnrichResult{Body: post.Body + "<img src=\"inline.png\">", ImagesAdded: 1, Cost: 0.01, Provider: "openai"}, nil
}

func (g *fakeGenerator) GenerateSocialPosts(ctx context.Context, post *content.Post, publishedURL string, s *site.Site) (*content.SocialPostsResult, error) {
	g.mu.Lock()
	g.socialPostsCalls++
	g.mu.Unlock()

	if g.socialPostsErr != nil {
		return nil, g.socialPostsErr
	}
	return &content.SocialPostsResult{
		Posts:    map[site.Platform]string{site.PlatformTwitter: "read this: " + publishedURL},
		Cost:     0.01,
		Provider: "openai",
	}, nil
}

func (g *fakeGenerator) GenerateSocialGraphic(ctx context.Context, topic string, s *site.Site) (*content.MediaResult, error) {
	if g.graphicErr != nil {
		return nil, g.graphicErr
	}
	return &content.MediaResult{MediaURL: "https://cdn.example.com/graphic.png", Caption: "caption for " + topic, Cost: 0.03, Provider: "gemini"}, nil
}

func (g *fakeGenerator) GenerateSocialVideo(ctx context.Context, topic string, s *site.Site) (*content.MediaResult, error) {
	if g.videoErr != nil {
		return nil, g.videoErr
	}
	return &content.MediaResult{MediaURL: "https://cdn.example.com/clip.mp4", Caption: "watch: " + topic, Cost: 0.08, Provider: "gemini"}, nil
}

func (g *fakeGenerator) GenerateEmail(ctx context.Context, topic string, s *site.Site) (*content.EmailResult, error) {
	if g.emailErr != nil {
		return nil, g.emailErr
	}
	return &content.EmailResult{Subject: "This week: " + topic, Body: "<p>newsletter about " + topic + "</p>", Cost: 0.02, Provider: "openai"}, nil
}

func (g *fakeGenerator) AnalyzeBroadcast(ctx context.Context, videoTitle, videoURL string, s *site.Site) (*content.BroadcastAnalysis, error) {
	g.mu.Lock()
	g.analyzeCalls++
	g.mu.Unlock()

	if g.analyzeErr != nil {
		return nil, g.analyzeErr
	}
	return &content.BroadcastAnalysis{Topic: "analysis of " + videoTitle, Summary: "key points", Cost: 0.06, Provider: "gemini"}, nil
}

type fakePublisher struct {
	mu         sync.Mutex
	publishErr error
	keys       []string
}

var _ content.Publisher = (*fakePublisher)(nil)

func (p *fakePublisher) PublishPost(ctx context.Context, s *site.Site, post *content.Post, focusKeyword, idempotencyKey string) (string, error) {
	p.mu.Lock()
	p.keys = append(p.keys, idempotencyKey)
	p.mu.Unlock()

	if p.publishErr != nil {
		return "", p.publishErr
	}
	return "https://blog.example.com/" + idempotencyKey, nil
}

type fakeSocialPublisher struct {
	mu      sync.Mutex
	failFor map[string]error
	posted  []string
}

var _ content.SocialPublisher = (*fakeSocialPublisher)(nil)

func (p *fakeSocialPublisher) PostToSocial(ctx context.Context, platform site.Platform, account site.DestinationAccount, text, mediaURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.failFor[account.ID]; ok {
		return err
	}
	p.posted = append(p.posted, fmt.Sprintf("%s/%s", platform, account.ID))
	return nil
}

type fakeEmailPublisher struct {
	mu       sync.Mutex
	sendErr  error
	subjects []string
}

var _ content.EmailPublisher = (*fakeEmailPublisher)(nil)

func (p *fakeEmailPublisher) SendCampaign(ctx context.Context, subject, body string, s *site.Site) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.mu.Lock()
	p.subjects = append(p.subjects, subject)
	p.mu.Unlock()
	return nil
}

func blogSite() *site.Site {
	return &site.Site{
		Name:                  "acme-blog",
		OwnerID:               "user-1",
		WordPressURL:          "https://acme.example.com",
		WordPressUsername:     "editor",
		WordPressPassword:     "app-password",
		IsAutoPublishEnabled:  true,
		DailyGenerationSource: site.SourceKeyword,
		KeywordList:           "ai trends\n[DONE] old topic",
		Blog:                  site.BlogAutomation{Enabled: true},
	}
}

func keywordSource(topic, raw string) site.SourceResult {
	return site.SourceResult{Type: site.SourceKeyword, Topic: topic, Value: raw}
}
