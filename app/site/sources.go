package site

import (
	"strings"
)

// SourceAvailable is the single source of truth for "does this site have
// anything left to work on" for a given source type. Readiness gating and the
// run-time resolver both go through it, so the two cannot drift apart.
//
// For feed-backed sources (rss, video, google_sheet) this is a presence check;
// actual unconsumed-item detection requires a network fetch and happens in the
// sources resolver at run time.
func SourceAvailable(s *Site, source SourceType) bool {
	switch source {
	case SourceKeyword:
		return NextKeyword(s) != ""
	case SourceRSS:
		return len(s.RSSSources) > 0
	case SourceVideo:
		return len(s.VideoSources) > 0
	case SourceGoogleSheet:
		if len(s.GoogleSheetSources) == 0 {
			return false
		}
		// Reading the sheet requires a connected Google account, not just the URL.
		g := s.GoogleAccount
		return g != nil && g.Connected && g.AccessToken != ""
	case SourceAgencyAgent:
		for _, p := range s.AgentScheduledPosts {
			if p.Status == AgentPostPending {
				return true
			}
		}
		return false
	case SourceNewPost:
		return len(s.History) > 0
	}
	return false
}

// NextKeyword returns the first keyword line that is non-empty and not yet
// marked done, trimmed.
func NextKeyword(s *Site) string {
	for _, line := range strings.Split(s.KeywordList, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, DoneMarker) {
			continue
		}
		return trimmed
	}
	return ""
}

// ConsumeSource marks the originating source item of a job consumed. It is
// idempotent: consuming an item that is already marked is a no-op, so a
// retried job cannot double-consume.
func ConsumeSource(s *Site, res SourceResult) {
	switch res.Type {
	case SourceKeyword:
		s.KeywordList = markKeywordDone(s.KeywordList, res)
	case SourceRSS:
		for i := range s.RSSSources {
			if s.RSSSources[i].ID == res.SourceID {
				s.RSSSources[i].ProcessedGUIDs = appendUnique(s.RSSSources[i].ProcessedGUIDs, res.GUID)
				return
			}
		}
	case SourceVideo:
		for i := range s.VideoSources {
			if s.VideoSources[i].ID == res.SourceID {
				s.VideoSources[i].ProcessedGUIDs = appendUnique(s.VideoSources[i].ProcessedGUIDs, res.GUID)
				return
			}
		}
	case SourceGoogleSheet:
		for i := range s.GoogleSheetSources {
			if s.GoogleSheetSources[i].ID == res.SourceID {
				s.GoogleSheetSources[i].ProcessedRows = appendUniqueInt(s.GoogleSheetSources[i].ProcessedRows, res.RowIndex)
				return
			}
		}
	case SourceAgencyAgent:
		for i := range s.AgentScheduledPosts {
			if s.AgentScheduledPosts[i].ID == res.AgentPostID {
				s.AgentScheduledPosts[i].Status = AgentPostProcessed
				return
			}
		}
	case SourceNewPost:
		// Repurposing a published post does not consume anything.
	}
}

// markKeywordDone rewrites the first line matching the consumed keyword to
// "[DONE] <line>". Exactly one line is rewritten; already-done lines never
// match again.
func markKeywordDone(keywordList string, res SourceResult) string {
	target := strings.TrimSpace(res.Value)
	if target == "" {
		target = strings.TrimSpace(res.Topic)
	}
	if target == "" {
		return keywordList
	}

	lines := strings.Split(keywordList, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, DoneMarker) {
			continue
		}
		if strings.EqualFold(trimmed, target) {
			lines[i] = DoneMarker + " " + trimmed
			break
		}
	}
	return strings.Join(lines, "\n")
}

func appendUnique(items []string, item string) []string {
	if item == "" {
		return items
	}
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

func appendUniqueInt(items []int, item int) []int {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}
