package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dotunfolarin/pressflow/app/site"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Fresh article</title>
      <link>https://news.example.com/fresh</link>
      <guid>guid-fresh</guid>
    </item>
    <item>
      <title>Old article</title>
      <link>https://news.example.com/old</link>
      <guid>guid-old</guid>
    </item>
  </channel>
</rss>`

func newTestResolver() *Resolver {
	return NewResolver(&http.Client{Timeout: 5 * time.Second}, "Pressflow Test/1.0")
}

func TestResolveKeyword(t *testing.T) {
	r := newTestResolver()
	s := &site.Site{KeywordList: "[DONE] old\nai trends in healthcare"}

	res, err := r.Resolve(context.Background(), s, site.SourceKeyword)
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != site.SourceKeyword {
		t.Errorf("Expected keyword source, got %s", res.Type)
	}
	if res.Value != "ai trends in healthcare" {
		t.Errorf("Expected raw keyword as value, got '%s'", res.Value)
	}
	if res.Topic != "Ai Trends In Healthcare" {
		t.Errorf("Expected title-cased topic, got '%s'", res.Topic)
	}
}

func TestResolveKeywordExhausted(t *testing.T) {
	r := newTestResolver()
	s := &site.Site{KeywordList: "[DONE] old"}

	_, err := r.Resolve(context.Background(), s, site.SourceKeyword)
	if !errors.Is(err, ErrNoSourceItem) {
		t.Errorf("Expected ErrNoSourceItem, got %v", err)
	}
}

func TestResolveRSSSkipsProcessedGuids(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	r := newTestResolver()
	s := &site.Site{
		Name: "acme",
		RSSSources: []site.RSSSource{
			{ID: "rss-1", URL: server.URL, ProcessedGUIDs: []string{"guid-fresh"}},
		},
	}

	res, err := r.Resolve(context.Background(), s, site.SourceRSS)
	if err != nil {
		t.Fatal(err)
	}
	if res.GUID != "guid-old" {
		t.Errorf("Expected first unprocessed GUID 'guid-old', got '%s'", res.GUID)
	}
	if res.SourceID != "rss-1" {
		t.Errorf("Expected source id 'rss-1', got '%s'", res.SourceID)
	}
	if res.Topic != "Old article" {
		t.Errorf("Expected item title as topic, got '%s'", res.Topic)
	}
}

func TestResolveRSSAllProcessed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	r := newTestResolver()
	s := &site.Site{
		RSSSources: []site.RSSSource{
			{ID: "rss-1", URL: server.URL, ProcessedGUIDs: []string{"guid-fresh", "guid-old"}},
		},
	}

	_, err := r.Resolve(context.Background(), s, site.SourceRSS)
	if !errors.Is(err, ErrNoSourceItem) {
		t.Errorf("Expected ErrNoSourceItem when all GUIDs processed, got %v", err)
	}
}

func TestResolveSheetSkipsProcessedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer google-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "topic,notes\nfirst topic,note a\nsecond topic,note b\n")
	}))
	defer server.Close()

	r := newTestResolver()
	s := &site.Site{
		GoogleAccount: &site.AccountConnection{Provider: "google", AccessToken: "google-token", Connected: true},
		GoogleSheetSources: []site.SheetSource{
			{ID: "sheet-1", URL: server.URL, ProcessedRows: []int{1}},
		},
	}

	res, err := r.Resolve(context.Background(), s, site.SourceGoogleSheet)
	if err != nil {
		t.Fatal(err)
	}
	if res.RowIndex != 2 {
		t.Errorf("Expected row index 2, got %d", res.RowIndex)
	}
	if res.Topic != "second topic" {
		t.Errorf("Expected topic 'second topic', got '%s'", res.Topic)
	}
}

func TestResolveSheetRequiresGoogleAccount(t *testing.T) {
	r := newTestResolver()
	s := &site.Site{
		GoogleSheetSources: []site.SheetSource{{ID: "sheet-1", URL: "https://sheets.example.com"}},
	}

	if _, err := r.Resolve(context.Background(), s, site.SourceGoogleSheet); err == nil {
		t.Error("Expected error without a connected Google account")
	}
}

func TestResolveAgentPost(t *testing.T) {
	r := newTestResolver()
	s := &site.Site{
		AgentScheduledPosts: []site.AgentPost{
			{ID: "agent-1", Topic: "done already", Status: site.AgentPostProcessed},
			{ID: "agent-2", Topic: "product tour", Brief: "walkthrough", Status: site.AgentPostPending},
		},
	}

	res, err := r.Resolve(context.Background(), s, site.SourceAgencyAgent)
	if err != nil {
		t.Fatal(err)
	}
	if res.AgentPostID != "agent-2" {
		t.Errorf("Expected pending agent post, got '%s'", res.AgentPostID)
	}
}

func TestResolveNewPost(t *testing.T) {
	r := newTestResolver()
	s := &site.Site{
		History: []site.PostHistoryItem{
			{ID: "h1", Topic: "older", Date: time.Now().Add(-2 * time.Hour)},
			{ID: "h2", Topic: "newest launch", URL: "https://acme.example.com/launch", Date: time.Now()},
		},
	}

	res, err := r.Resolve(context.Background(), s, site.SourceNewPost)
	if err != nil {
		t.Fatal(err)
	}
	if res.Topic != "newest launch" {
		t.Errorf("Expected latest history topic, got '%s'", res.Topic)
	}
}

func TestLatestFeedItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	r := newTestResolver()
	item, err := r.LatestFeedItem(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if item == nil || item.GUID != "guid-fresh" {
		t.Errorf("Expected newest item 'guid-fresh', got %+v", item)
	}
}
