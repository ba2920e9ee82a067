package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dotunfolarin/pressflow/app/site"
)

// GatewayClient implements Generator against the content generation gateway,
// a JSON-over-HTTP service fronting the AI providers.
type GatewayClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

var _ Generator = (*GatewayClient)(nil)

func NewGatewayClient(httpClient *http.Client, baseURL, apiKey, userAgent string) *GatewayClient {
	return &GatewayClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		userAgent:  userAgent,
	}
}

func (c *GatewayClient) GenerateBrief(ctx context.Context, topic string, s *site.Site) (*BriefResult, error) {
	var result BriefResult
	payload := map[string]any{"topic": topic, "site": s.Name}
	if err := c.call(ctx, "/v1/brief", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate brief: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) GenerateArticle(ctx context.Context, brief *Brief, s *site.Site) (*ArticleResult, error) {
	var result ArticleResult
	payload := map[string]any{"brief": brief, "site": s.Name}
	if err := c.call(ctx, "/v1/article", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate article: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) GenerateImage(ctx context.Context, prompt string, s *site.Site) (*ImageResult, error) {
	var result ImageResult
	payload := map[string]any{"prompt": prompt, "site": s.Name}
	if err := c.call(ctx, "/v1/image", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) EnrichWithImages(ctx context.Context, post *Post, s *site.Site) (*EnrichResult, error) {
	var result EnrichResult
	payload := map[string]any{"post": post, "site": s.Name}
	if err := c.call(ctx, "/v1/enrich", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to enrich post with images: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) GenerateSocialPosts(ctx context.Context, post *Post, publishedURL string, s *site.Site) (*SocialPostsResult, error) {
	var result SocialPostsResult
	payload := map[string]any{"post": post, "url": publishedURL, "site": s.Name}
	if err := c.call(ctx, "/v1/social-posts", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate social posts: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) GenerateSocialGraphic(ctx context.Context, topic string, s *site.Site) (*MediaResult, error) {
	var result MediaResult
	payload := map[string]any{"topic": topic, "site": s.Name}
	if err := c.call(ctx, "/v1/social-graphic", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate social graphic: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) GenerateSocialVideo(ctx context.Context, topic string, s *site.Site) (*MediaResult, error) {
	var result MediaResult
	payload := map[string]any{"topic": topic, "site": s.Name}
	if err := c.call(ctx, "/v1/social-video", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate social video: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) GenerateEmail(ctx context.Context, topic string, s *site.Site) (*EmailResult, error) {
	var result EmailResult
	payload := map[string]any{"topic": topic, "site": s.Name}
	if err := c.call(ctx, "/v1/email", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to generate email: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) AnalyzeBroadcast(ctx context.Context, videoTitle, videoURL string, s *site.Site) (*BroadcastAnalysis, error) {
	var result BroadcastAnalysis
	payload := map[string]any{"title": videoTitle, "url": videoURL, "site": s.Name, "search_grounding": true}
	if err := c.call(ctx, "/v1/broadcast-analysis", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to analyze broadcast: %w", err)
	}
	return &result, nil
}

func (c *GatewayClient) call(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// WordPressClient implements Publisher against the WordPress REST API.
type WordPressClient struct {
	httpClient *http.Client
	userAgent  string
}

var _ Publisher = (*WordPressClient)(nil)

func NewWordPressClient(httpClient *http.Client, userAgent string) *WordPressClient {
	return &WordPressClient{httpClient: httpClient, userAgent: userAgent}
}

func (c *WordPressClient) PublishPost(ctx context.Context, s *site.Site, post *Post, focusKeyword, idempotencyKey string) (string, error) {
	if s.WordPressURL == "" || s.WordPressUsername == "" || s.WordPressPassword == "" {
		return "", fmt.Errorf("incomplete WordPress credentials for site %s", s.Name)
	}

	payload := map[string]any{
		"title":   post.Title,
		"content": post.Body,
		"status":  "publish",
		// The idempotency key doubles as the slug so a retried publish resolves
		// to the same post instead of creating a duplicate.
		"slug": idempotencyKey,
		"meta": map[string]string{"focus_keyword": focusKeyword},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal post: %w", err)
	}

	endpoint := strings.TrimRight(s.WordPressURL, "/") + "/wp-json/wp/v2/posts"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth(s.WordPressUsername, s.WordPressPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to publish post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var created struct {
		Link string `json:"link"`
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if created.Link == "" {
		return "", fmt.Errorf("publish succeeded but no post link returned")
	}

	return created.Link, nil
}

// SocialRelayClient implements SocialPublisher against the social posting
// relay, which holds the platform-specific API logic.
type SocialRelayClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

var _ SocialPublisher = (*SocialRelayClient)(nil)

func NewSocialRelayClient(httpClient *http.Client, baseURL, userAgent string) *SocialRelayClient {
	return &SocialRelayClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

func (c *SocialRelayClient) PostToSocial(ctx context.Context, platform site.Platform, account site.DestinationAccount, text, mediaURL string) error {
	payload := map[string]any{
		"platform":     platform,
		"account_id":   account.ID,
		"access_token": account.AccessToken,
		"text":         text,
		"media_url":    mediaURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/posts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("HTTP error posting to %s: %d %s", platform, resp.StatusCode, resp.Status)
	}

	return nil
}

// EmailGatewayClient implements EmailPublisher against the email campaign
// gateway fronting the site's provider.
type EmailGatewayClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

var _ EmailPublisher = (*EmailGatewayClient)(nil)

func NewEmailGatewayClient(httpClient *http.Client, baseURL, userAgent string) *EmailGatewayClient {
	return &EmailGatewayClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

func (c *EmailGatewayClient) SendCampaign(ctx context.Context, subject, body string, s *site.Site) error {
	if s.EmailProvider == nil || !s.EmailProvider.Connected {
		return fmt.Errorf("no connected email provider for site %s", s.Name)
	}

	payload := map[string]any{
		"provider": s.EmailProvider.Provider,
		"api_key":  s.EmailProvider.APIKey,
		"list_id":  s.EmailProvider.DefaultListID,
		"subject":  subject,
		"body":     body,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/campaigns", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send campaign: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("HTTP error sending campaign: %d %s", resp.StatusCode, resp.Status)
	}

	return nil
}
