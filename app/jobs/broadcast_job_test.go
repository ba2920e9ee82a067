package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dotunfolarin/pressflow/app/site"
	"github.com/dotunfolarin/pressflow/app/sources"
)

const broadcastFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Live Channel</title>
    <item>
      <title>Weekly Q&amp;A Session</title>
      <link>https://videos.example.com/watch?v=vid-42</link>
      <guid>vid-42</guid>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Older Broadcast</title>
      <link>https://videos.example.com/watch?v=vid-41</link>
      <guid>vid-41</guid>
      <pubDate>Mon, 26 Dec 2005 15:04:05 GMT</pubDate>
    </item>
  </channel>
</rss>`

func broadcastSite(feedURL string) *site.Site {
	return &site.Site{
		Name:    "acme-blog",
		OwnerID: "user-1",
		Broadcast: site.BroadcastAutomation{
			Enabled:        true,
			SourceKind:     "profile",
			ProfileURL:     "https://videos.example.com/@acme",
			FeedURL:        feedURL,
			ScheduledTimes: []string{"09:00"},
			State:          site.BroadcastIdle,
		},
	}
}

func TestBroadcastJobProcessesNewVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(broadcastFeed))
	}))
	defer server.Close()

	repo := newMemoryRepo(broadcastSite(server.URL))
	generator := &fakeGenerator{}
	resolver := sources.NewResolver(server.Client(), "test-agent")

	job := NewBroadcastJob("acme-blog", "user-1", generator, resolver, repo, NewStatusStore())

	if err := job.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	s, _ := repo.GetSite("acme-blog")
	if s.Broadcast.State != site.BroadcastComplete {
		t.Errorf("Expected complete state, got %s", s.Broadcast.State)
	}
	if s.Broadcast.LastProcessedVideoID != "vid-42" {
		t.Errorf("Expected vid-42 processed, got %q", s.Broadcast.LastProcessedVideoID)
	}
	if s.Broadcast.LastTopic == "" {
		t.Error("Expected analysis topic recorded")
	}
	if generator.analyzeCalls != 1 {
		t.Errorf("Expected 1 analysis call, got %d", generator.analyzeCalls)
	}
	if s.APIUsage["gemini"] != 0.06 {
		t.Errorf("Expected analysis cost recorded, got %f", s.APIUsage["gemini"])
	}
}

func TestBroadcastJobIdempotentOnSeenVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(broadcastFeed))
	}))
	defer server.Close()

	seed := broadcastSite(server.URL)
	seed.Broadcast.LastProcessedVideoID = "vid-42"
	repo := newMemoryRepo(seed)
	generator := &fakeGenerator{}
	resolver := sources.NewResolver(server.Client(), "test-agent")

	job := NewBroadcastJob("acme-blog", "user-1", generator, resolver, repo, NewStatusStore())

	if err := job.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if generator.analyzeCalls != 0 {
		t.Errorf("Expected no analysis for already processed video, got %d calls", generator.analyzeCalls)
	}

	s, _ := repo.GetSite("acme-blog")
	if s.Broadcast.State != site.BroadcastIdle {
		t.Errorf("Expected idle state after no-op run, got %s", s.Broadcast.State)
	}
	if job.GetState() != StateDone {
		t.Errorf("Expected done state, got %s", job.GetState())
	}
}

func TestBroadcastJobDisabledSkips(t *testing.T) {
	seed := broadcastSite("http://127.0.0.1:1/feed")
	seed.Broadcast.Enabled = false
	repo := newMemoryRepo(seed)
	generator := &fakeGenerator{}
	resolver := sources.NewResolver(http.DefaultClient, "test-agent")

	job := NewBroadcastJob("acme-blog", "user-1", generator, resolver, repo, NewStatusStore())

	if err := job.Execute(context.Background()); err != nil {
		t.Fatalf("Expected disabled automation to be a no-op, got %v", err)
	}
	if generator.analyzeCalls != 0 {
		t.Errorf("Expected no analysis calls, got %d", generator.analyzeCalls)
	}
}

func TestBroadcastJobFeedErrorPersisted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := newMemoryRepo(broadcastSite(server.URL))
	resolver := sources.NewResolver(server.Client(), "test-agent")

	job := NewBroadcastJob("acme-blog", "user-1", &fakeGenerator{}, resolver, repo, NewStatusStore())

	if err := job.Execute(context.Background()); err == nil {
		t.Fatal("Expected error when feed fetch fails")
	}

	s, _ := repo.GetSite("acme-blog")
	if s.Broadcast.State != site.BroadcastError {
		t.Errorf("Expected error state persisted, got %s", s.Broadcast.State)
	}
	if s.Broadcast.LastError == "" {
		t.Error("Expected lastError persisted on the site")
	}
}
