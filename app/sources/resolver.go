package sources

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dotunfolarin/pressflow/app/site"
)

// ErrNoSourceItem is returned when every configured source item has already
// been consumed.
var ErrNoSourceItem = errors.New("no unconsumed source item")

// FeedItem is one entry discovered in an RSS or video feed.
type FeedItem struct {
	GUID  string
	Title string
	Link  string
}

// Resolver finds the next unconsumed source item for a site at run time.
// Readiness only checks presence; the resolver performs the authoritative
// unconsumed-item detection against the same consumption markers.
type Resolver struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	extractor  *Extractor
	userAgent  string
}

func NewResolver(httpClient *http.Client, userAgent string) *Resolver {
	return &Resolver{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		extractor:  NewExtractor(),
		userAgent:  userAgent,
	}
}

func (r *Resolver) Resolve(ctx context.Context, s *site.Site, source site.SourceType) (*site.SourceResult, error) {
	switch source {
	case site.SourceKeyword:
		return r.resolveKeyword(s)
	case site.SourceRSS:
		return r.resolveRSS(ctx, s)
	case site.SourceVideo:
		return r.resolveVideo(ctx, s)
	case site.SourceGoogleSheet:
		return r.resolveSheet(ctx, s)
	case site.SourceAgencyAgent:
		return r.resolveAgentPost(s)
	case site.SourceNewPost:
		return r.resolveNewPost(s)
	}
	return nil, fmt.Errorf("unknown source type: %s", source)
}

func (r *Resolver) resolveKeyword(s *site.Site) (*site.SourceResult, error) {
	keyword := site.NextKeyword(s)
	if keyword == "" {
		return nil, ErrNoSourceItem
	}
	return &site.SourceResult{
		Type:  site.SourceKeyword,
		Topic: cases.Title(language.English).String(keyword),
		Value: keyword,
	}, nil
}

func (r *Resolver) resolveRSS(ctx context.Context, s *site.Site) (*site.SourceResult, error) {
	for _, source := range s.RSSSources {
		item, err := r.firstUnprocessedItem(ctx, source.URL, source.ProcessedGUIDs)
		if err != nil {
			slog.Warn("Failed to read RSS source, skipping", "site", s.Name, "source", source.ID, "error", err)
			continue
		}
		if item == nil {
			continue
		}

		// Best effort: extract the linked article as source material. The feed
		// description is enough to work from when extraction fails.
		value := item.Title
		if item.Link != "" {
			if extracted, err := r.extractArticle(ctx, item.Link); err == nil {
				value = extracted
			} else {
				slog.Debug("Article extraction failed, using feed item title", "url", item.Link, "error", err)
			}
		}

		return &site.SourceResult{
			Type:     site.SourceRSS,
			Topic:    item.Title,
			Value:    value,
			SourceID: source.ID,
			GUID:     item.GUID,
		}, nil
	}
	return nil, ErrNoSourceItem
}

func (r *Resolver) resolveVideo(ctx context.Context, s *site.Site) (*site.SourceResult, error) {
	for _, source := range s.VideoSources {
		item, err := r.firstUnprocessedItem(ctx, source.URL, source.ProcessedGUIDs)
		if err != nil {
			slog.Warn("Failed to read video source, skipping", "site", s.Name, "source", source.ID, "error", err)
			continue
		}
		if item == nil {
			continue
		}
		return &site.SourceResult{
			Type:     site.SourceVideo,
			Topic:    item.Title,
			Value:    item.Link,
			SourceID: source.ID,
			GUID:     item.GUID,
		}, nil
	}
	return nil, ErrNoSourceItem
}

func (r *Resolver) resolveSheet(ctx context.Context, s *site.Site) (*site.SourceResult, error) {
	if s.GoogleAccount == nil || !s.GoogleAccount.Connected || s.GoogleAccount.AccessToken == "" {
		return nil, fmt.Errorf("google sheet source requires a connected Google account")
	}

	for _, source := range s.GoogleSheetSources {
		rows, err := r.fetchSheetRows(ctx, source.URL, s.GoogleAccount.AccessToken)
		if err != nil {
			slog.Warn("Failed to read sheet source, skipping", "site", s.Name, "source", source.ID, "error", err)
			continue
		}

		processed := make(map[int]bool, len(source.ProcessedRows))
		for _, idx := range source.ProcessedRows {
			processed[idx] = true
		}

		// Row 0 is the header.
		for idx := 1; idx < len(rows); idx++ {
			if processed[idx] {
				continue
			}
			row := rows[idx]
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			return &site.SourceResult{
				Type:     site.SourceGoogleSheet,
				Topic:    strings.TrimSpace(row[0]),
				Value:    strings.Join(row, " | "),
				SourceID: source.ID,
				RowIndex: idx,
			}, nil
		}
	}
	return nil, ErrNoSourceItem
}

func (r *Resolver) resolveAgentPost(s *site.Site) (*site.SourceResult, error) {
	for _, post := range s.AgentScheduledPosts {
		if post.Status != site.AgentPostPending {
			continue
		}
		return &site.SourceResult{
			Type:        site.SourceAgencyAgent,
			Topic:       post.Topic,
			Value:       post.Brief,
			AgentPostID: post.ID,
		}, nil
	}
	return nil, ErrNoSourceItem
}

func (r *Resolver) resolveNewPost(s *site.Site) (*site.SourceResult, error) {
	latest := s.LatestHistory()
	if latest == nil {
		return nil, ErrNoSourceItem
	}
	return &site.SourceResult{
		Type:  site.SourceNewPost,
		Topic: latest.Topic,
		Value: latest.URL,
	}, nil
}

// firstUnprocessedItem fetches and parses a feed and returns the first item
// whose GUID is not yet marked processed, or nil when all are.
func (r *Resolver) firstUnprocessedItem(ctx context.Context, feedURL string, processedGUIDs []string) (*FeedItem, error) {
	feed, err := r.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	processed := make(map[string]bool, len(processedGUIDs))
	for _, guid := range processedGUIDs {
		processed[guid] = true
	}

	for _, item := range feed.Items {
		guid := cmp.Or(item.GUID, item.Link)
		if guid == "" || processed[guid] {
			continue
		}
		return &FeedItem{GUID: guid, Title: item.Title, Link: item.Link}, nil
	}
	return nil, nil
}

// LatestFeedItem returns the newest entry of a feed. The broadcast monitor
// uses it to detect a freshly completed live video.
func (r *Resolver) LatestFeedItem(ctx context.Context, feedURL string) (*FeedItem, error) {
	feed, err := r.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	if len(feed.Items) == 0 {
		return nil, nil
	}
	item := feed.Items[0]
	return &FeedItem{GUID: cmp.Or(item.GUID, item.Link), Title: item.Title, Link: item.Link}, nil
}

func (r *Resolver) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

func (r *Resolver) extractArticle(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return r.extractor.Run(data)
}

func (r *Resolver) fetchSheetRows(ctx context.Context, url, accessToken string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet CSV: %w", err)
	}
	return rows, nil
}
