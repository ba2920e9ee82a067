package site

import (
	"time"
)

type AutomationClass string

const (
	ClassBlog          AutomationClass = "blog"
	ClassSocialGraphic AutomationClass = "social_graphic"
	ClassSocialVideo   AutomationClass = "social_video"
	ClassEmail         AutomationClass = "email"
	ClassBroadcast     AutomationClass = "broadcast"
)

type SourceType string

const (
	SourceKeyword     SourceType = "keyword"
	SourceRSS         SourceType = "rss"
	SourceVideo       SourceType = "video"
	SourceGoogleSheet SourceType = "google_sheet"
	SourceAgencyAgent SourceType = "agency_agent"
	SourceNewPost     SourceType = "newly_published_post"
)

type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformPinterest Platform = "pinterest"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
)

// Fixed destination platform sets per social class.
var (
	GraphicPlatforms = []Platform{PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformLinkedIn, PlatformPinterest}
	VideoPlatforms   = []Platform{PlatformYouTube, PlatformTikTok, PlatformInstagram}
)

// DoneMarker prefixes a consumed keyword line.
const DoneMarker = "[DONE]"

// SourceResult identifies where a job's content topic came from, with enough
// detail to mark that source consumed after a successful publish.
type SourceResult struct {
	Type        SourceType `json:"type" yaml:"type"`
	Topic       string     `json:"topic" yaml:"topic"`
	Value       string     `json:"value,omitempty" yaml:"value,omitempty"`
	SourceID    string     `json:"sourceId,omitempty" yaml:"sourceId,omitempty"`
	GUID        string     `json:"guid,omitempty" yaml:"guid,omitempty"`
	RowIndex    int        `json:"rowIndex,omitempty" yaml:"rowIndex,omitempty"`
	AgentPostID string     `json:"agentPostId,omitempty" yaml:"agentPostId,omitempty"`
}

// PostHistoryItem is an immutable record appended to Site.History on success.
type PostHistoryItem struct {
	ID          string                `json:"id" yaml:"id"`
	Topic       string                `json:"topic" yaml:"topic"`
	URL         string                `json:"url,omitempty" yaml:"url,omitempty"`
	Date        time.Time             `json:"date" yaml:"date"`
	Type        AutomationClass       `json:"type" yaml:"type"`
	Content     string                `json:"content,omitempty" yaml:"content,omitempty"`
	ImageURL    string                `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Caption     string                `json:"caption,omitempty" yaml:"caption,omitempty"`
	Subject     string                `json:"subject,omitempty" yaml:"subject,omitempty"`
	MediaURL    string                `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty"`
	SocialPosts map[Platform]string   `json:"socialPosts,omitempty" yaml:"socialPosts,omitempty"`
	FanOut      []FanOutResult        `json:"fanOut,omitempty" yaml:"fanOut,omitempty"`
}

// FanOutResult records one destination's outcome of a social fan-out.
type FanOutResult struct {
	DestinationID string   `json:"destinationId" yaml:"destinationId"`
	Platform      Platform `json:"platform" yaml:"platform"`
	Success       bool     `json:"success" yaml:"success"`
	Message       string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Draft is an unpublished generation result awaiting manual review.
type Draft struct {
	ID        string    `json:"id" yaml:"id"`
	Topic     string    `json:"topic" yaml:"topic"`
	Brief     string    `json:"brief" yaml:"brief"`
	Content   string    `json:"content" yaml:"content"`
	ImageURL  string    `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type ScheduleType string

const (
	ScheduleWeekly  ScheduleType = "weekly"
	ScheduleMonthly ScheduleType = "monthly"
)

// RecurringSchedule is owned by an external scheduler; the processors only
// stamp LastRun atomically with the history append.
type RecurringSchedule struct {
	ID        string       `json:"id" yaml:"id"`
	Type      ScheduleType `json:"type" yaml:"type"`
	Days      []int        `json:"days" yaml:"days"`
	Time      string       `json:"time" yaml:"time"`
	IsEnabled bool         `json:"isEnabled" yaml:"isEnabled"`
	LastRun   *time.Time   `json:"lastRun,omitempty" yaml:"lastRun,omitempty"`
}

// DestinationAccount is a social account content can be posted to.
type DestinationAccount struct {
	ID          string   `json:"id" yaml:"id"`
	Platform    Platform `json:"platform" yaml:"platform"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	AccessToken string   `json:"accessToken" yaml:"accessToken"`
	Connected   bool     `json:"connected" yaml:"connected"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`
}

// BusinessConnection is a platform business-suite connection that delegates
// access to multiple assets (pages, profiles) under one token.
type BusinessConnection struct {
	ID          string           `json:"id" yaml:"id"`
	Platform    Platform         `json:"platform" yaml:"platform"`
	AccessToken string           `json:"accessToken" yaml:"accessToken"`
	Connected   bool             `json:"connected" yaml:"connected"`
	Assets      []DelegatedAsset `json:"assets,omitempty" yaml:"assets,omitempty"`
}

type DelegatedAsset struct {
	ID       string   `json:"id" yaml:"id"`
	Platform Platform `json:"platform" yaml:"platform"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled  bool     `json:"enabled" yaml:"enabled"`
}

// AccountConnection is a generic OAuth-style provider connection.
type AccountConnection struct {
	Provider    string `json:"provider" yaml:"provider"`
	AccessToken string `json:"accessToken" yaml:"accessToken"`
	Connected   bool   `json:"connected" yaml:"connected"`
}

// EmailConnection is an email provider connection with a default audience.
type EmailConnection struct {
	Provider      string `json:"provider" yaml:"provider"`
	APIKey        string `json:"apiKey" yaml:"apiKey"`
	DefaultListID string `json:"defaultListId" yaml:"defaultListId"`
	Connected     bool   `json:"connected" yaml:"connected"`
}

type RSSSource struct {
	ID             string   `json:"id" yaml:"id"`
	URL            string   `json:"url" yaml:"url"`
	ProcessedGUIDs []string `json:"processedRssGuids,omitempty" yaml:"processedRssGuids,omitempty"`
}

type VideoSource struct {
	ID             string   `json:"id" yaml:"id"`
	URL            string   `json:"url" yaml:"url"`
	ProcessedGUIDs []string `json:"processedVideoGuids,omitempty" yaml:"processedVideoGuids,omitempty"`
}

type SheetSource struct {
	ID            string `json:"id" yaml:"id"`
	URL           string `json:"url" yaml:"url"`
	ProcessedRows []int  `json:"processedGoogleSheetRows,omitempty" yaml:"processedGoogleSheetRows,omitempty"`
}

const (
	AgentPostPending   = "pending"
	AgentPostProcessed = "processed"
)

// AgentPost is a content suggestion produced by the agency agent.
type AgentPost struct {
	ID     string `json:"id" yaml:"id"`
	Topic  string `json:"topic" yaml:"topic"`
	Brief  string `json:"brief,omitempty" yaml:"brief,omitempty"`
	Status string `json:"status" yaml:"status"`
}

// SocialAutomation configures one social content class.
type SocialAutomation struct {
	Enabled     bool                `json:"enabled" yaml:"enabled"`
	AutoPublish bool                `json:"autoPublish" yaml:"autoPublish"`
	Source      SourceType          `json:"source" yaml:"source"`
	Schedules   []RecurringSchedule `json:"schedules,omitempty" yaml:"schedules,omitempty"`
	LastRun     *time.Time          `json:"lastRun,omitempty" yaml:"lastRun,omitempty"`
}

type BlogAutomation struct {
	Enabled   bool                `json:"enabled" yaml:"enabled"`
	Schedules []RecurringSchedule `json:"schedules,omitempty" yaml:"schedules,omitempty"`
}

type EmailAutomation struct {
	Enabled   bool                `json:"enabled" yaml:"enabled"`
	Source    SourceType          `json:"source" yaml:"source"`
	Schedules []RecurringSchedule `json:"schedules,omitempty" yaml:"schedules,omitempty"`
	LastRun   *time.Time          `json:"lastRun,omitempty" yaml:"lastRun,omitempty"`
}

type BroadcastState string

const (
	BroadcastIdle       BroadcastState = "idle"
	BroadcastMonitoring BroadcastState = "monitoring"
	BroadcastProcessing BroadcastState = "processing"
	BroadcastScheduling BroadcastState = "scheduling"
	BroadcastComplete   BroadcastState = "complete"
	BroadcastError      BroadcastState = "error"
)

const (
	BroadcastSourcePage    = "page"
	BroadcastSourceProfile = "profile"
)

// BroadcastAutomation is the live-broadcast monitor's persisted sub-state.
// Every state transition is written back in full so a retried job can resume.
type BroadcastAutomation struct {
	Enabled              bool           `json:"enabled" yaml:"enabled"`
	SourceKind           string         `json:"sourceKind,omitempty" yaml:"sourceKind,omitempty"`
	PageID               string         `json:"pageId,omitempty" yaml:"pageId,omitempty"`
	BusinessConnectionID string         `json:"businessConnectionId,omitempty" yaml:"businessConnectionId,omitempty"`
	ProfileURL           string         `json:"profileUrl,omitempty" yaml:"profileUrl,omitempty"`
	FeedURL              string         `json:"feedUrl,omitempty" yaml:"feedUrl,omitempty"`
	ScheduledTimes       []string       `json:"scheduledTimes,omitempty" yaml:"scheduledTimes,omitempty"`
	State                BroadcastState `json:"state,omitempty" yaml:"state,omitempty"`
	LastProcessedVideoID string         `json:"lastProcessedVideoId,omitempty" yaml:"lastProcessedVideoId,omitempty"`
	LastTopic            string         `json:"lastTopic,omitempty" yaml:"lastTopic,omitempty"`
	LastError            string         `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

// PendingPublish is an idempotency key persisted before calling the publisher,
// so a crash between publish and commit does not mint a fresh publish on retry.
type PendingPublish struct {
	Key       string    `json:"key" yaml:"key"`
	JobID     string    `json:"jobId" yaml:"jobId"`
	Topic     string    `json:"topic" yaml:"topic"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Site is one tenant's full configuration and content-automation state.
// It is stored as a single JSON blob and rewritten whole on every update.
type Site struct {
	Name    string `json:"name" yaml:"name"`
	OwnerID string `json:"ownerId" yaml:"ownerId"`

	WordPressURL      string `json:"wordpressUrl" yaml:"wordpressUrl"`
	WordPressUsername string `json:"wordpressUsername" yaml:"wordpressUsername"`
	WordPressPassword string `json:"wordpressPassword" yaml:"wordpressPassword"`

	IsAutoPublishEnabled bool `json:"isAutoPublishEnabled" yaml:"isAutoPublishEnabled"`
	OmnipresenceEnabled  bool `json:"omnipresenceEnabled" yaml:"omnipresenceEnabled"`
	InPostImagesEnabled  bool `json:"inPostImagesEnabled" yaml:"inPostImagesEnabled"`

	DailyGenerationSource SourceType `json:"dailyGenerationSource" yaml:"dailyGenerationSource"`
	KeywordList           string     `json:"keywordList" yaml:"keywordList"`

	RSSSources          []RSSSource        `json:"rssSources,omitempty" yaml:"rssSources,omitempty"`
	VideoSources        []VideoSource      `json:"videoSources,omitempty" yaml:"videoSources,omitempty"`
	GoogleSheetSources  []SheetSource      `json:"googleSheetSources,omitempty" yaml:"googleSheetSources,omitempty"`
	GoogleAccount       *AccountConnection `json:"googleAccount,omitempty" yaml:"googleAccount,omitempty"`
	AgentScheduledPosts []AgentPost        `json:"agentScheduledPosts,omitempty" yaml:"agentScheduledPosts,omitempty"`

	SocialAccounts      []DestinationAccount `json:"socialAccounts,omitempty" yaml:"socialAccounts,omitempty"`
	BusinessConnections []BusinessConnection `json:"businessConnections,omitempty" yaml:"businessConnections,omitempty"`
	EmailProvider       *EmailConnection     `json:"emailProvider,omitempty" yaml:"emailProvider,omitempty"`

	Blog          BlogAutomation      `json:"blog" yaml:"blog"`
	SocialGraphic SocialAutomation    `json:"socialGraphic" yaml:"socialGraphic"`
	SocialVideo   SocialAutomation    `json:"socialVideo" yaml:"socialVideo"`
	Email         EmailAutomation     `json:"email" yaml:"email"`
	Broadcast     BroadcastAutomation `json:"broadcast" yaml:"broadcast"`

	Drafts  []Draft           `json:"drafts,omitempty" yaml:"drafts,omitempty"`
	History []PostHistoryItem `json:"history,omitempty" yaml:"history,omitempty"`

	APIUsage map[string]float64 `json:"apiUsage,omitempty" yaml:"apiUsage,omitempty"`

	LastAutoPilotRun *time.Time       `json:"lastAutoPilotRun,omitempty" yaml:"lastAutoPilotRun,omitempty"`
	PendingPublishes []PendingPublish `json:"pendingPublishes,omitempty" yaml:"pendingPublishes,omitempty"`
}

// Readiness reports whether each automation class has the prerequisites to run.
type Readiness struct {
	Blog           bool `json:"blog" yaml:"blog"`
	SocialGraphic  bool `json:"socialGraphic" yaml:"socialGraphic"`
	SocialVideo    bool `json:"socialVideo" yaml:"socialVideo"`
	Email          bool `json:"email" yaml:"email"`
	LiveProduction bool `json:"liveProduction" yaml:"liveProduction"`
}

// ForClass returns the readiness flag for a single automation class.
func (r Readiness) ForClass(class AutomationClass) bool {
	switch class {
	case ClassBlog:
		return r.Blog
	case ClassSocialGraphic:
		return r.SocialGraphic
	case ClassSocialVideo:
		return r.SocialVideo
	case ClassEmail:
		return r.Email
	case ClassBroadcast:
		return r.LiveProduction
	}
	return false
}

// AddUsage increases the running cost ledger for a provider. Costs only grow;
// resetting is an explicit user action outside this package.
func (s *Site) AddUsage(provider string, cost float64) {
	if provider == "" || cost <= 0 {
		return
	}
	if s.APIUsage == nil {
		s.APIUsage = make(map[string]float64)
	}
	s.APIUsage[provider] += cost
}

// ClassSource returns the configured source type for a class, falling back to
// the latest published post for social classes and the keyword list for email.
func (s *Site) ClassSource(class AutomationClass) SourceType {
	switch class {
	case ClassBlog:
		return s.DailyGenerationSource
	case ClassSocialGraphic:
		if s.SocialGraphic.Source != "" {
			return s.SocialGraphic.Source
		}
		return SourceNewPost
	case ClassSocialVideo:
		if s.SocialVideo.Source != "" {
			return s.SocialVideo.Source
		}
		return SourceNewPost
	case ClassEmail:
		if s.Email.Source != "" {
			return s.Email.Source
		}
		return SourceKeyword
	}
	return ""
}

// ClassSchedules returns the recurring schedules configured for a class.
func (s *Site) ClassSchedules(class AutomationClass) []RecurringSchedule {
	switch class {
	case ClassBlog:
		return s.Blog.Schedules
	case ClassSocialGraphic:
		return s.SocialGraphic.Schedules
	case ClassSocialVideo:
		return s.SocialVideo.Schedules
	case ClassEmail:
		return s.Email.Schedules
	}
	return nil
}

// StampSchedule sets LastRun on the schedule with the given ID, if present.
func (s *Site) StampSchedule(class AutomationClass, scheduleID string, at time.Time) {
	if scheduleID == "" {
		return
	}
	var schedules []RecurringSchedule
	switch class {
	case ClassBlog:
		schedules = s.Blog.Schedules
	case ClassSocialGraphic:
		schedules = s.SocialGraphic.Schedules
	case ClassSocialVideo:
		schedules = s.SocialVideo.Schedules
	case ClassEmail:
		schedules = s.Email.Schedules
	}
	for i := range schedules {
		if schedules[i].ID == scheduleID {
			schedules[i].LastRun = &at
			return
		}
	}
}

// LatestHistory returns the most recent history entry, or nil.
func (s *Site) LatestHistory() *PostHistoryItem {
	if len(s.History) == 0 {
		return nil
	}
	latest := &s.History[0]
	for i := range s.History {
		if s.History[i].Date.After(latest.Date) {
			latest = &s.History[i]
		}
	}
	return latest
}

// FindPendingPublish returns the persisted idempotency entry for a job, or nil.
func (s *Site) FindPendingPublish(jobID string) *PendingPublish {
	for i := range s.PendingPublishes {
		if s.PendingPublishes[i].JobID == jobID {
			return &s.PendingPublishes[i]
		}
	}
	return nil
}

// ClearPendingPublish removes the idempotency entry for a job.
func (s *Site) ClearPendingPublish(jobID string) {
	kept := s.PendingPublishes[:0]
	for _, p := range s.PendingPublishes {
		if p.JobID != jobID {
			kept = append(kept, p)
		}
	}
	s.PendingPublishes = kept
}
