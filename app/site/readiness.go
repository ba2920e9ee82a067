package site

// CheckAutomationReadiness reports whether each automation class has the
// prerequisites to run: toggle enabled, destination channel configured, and a
// source item present. Pure and side-effect free, safe to call on every poll.
func CheckAutomationReadiness(s *Site) Readiness {
	return Readiness{
		Blog:           blogReady(s),
		SocialGraphic:  socialReady(s, s.SocialGraphic, GraphicPlatforms),
		SocialVideo:    socialReady(s, s.SocialVideo, VideoPlatforms),
		Email:          emailReady(s),
		LiveProduction: broadcastReady(s),
	}
}

func blogReady(s *Site) bool {
	if !s.Blog.Enabled {
		return false
	}
	if s.WordPressURL == "" || s.WordPressUsername == "" || s.WordPressPassword == "" {
		return false
	}
	return SourceAvailable(s, s.DailyGenerationSource)
}

func socialReady(s *Site, automation SocialAutomation, platforms []Platform) bool {
	if !automation.Enabled {
		return false
	}
	if !hasAnyDestination(s, platforms) {
		return false
	}
	source := automation.Source
	if source == "" {
		source = SourceNewPost
	}
	return SourceAvailable(s, source)
}

func emailReady(s *Site) bool {
	if !s.Email.Enabled {
		return false
	}
	p := s.EmailProvider
	if p == nil || !p.Connected || p.APIKey == "" || p.DefaultListID == "" {
		return false
	}
	return SourceAvailable(s, s.ClassSource(ClassEmail))
}

// broadcastReady needs a configured source (per sub-type), the feed URL the
// monitor polls, and at least one scheduled post time. Source items are
// discovered by polling, so no source-collection check applies here.
func broadcastReady(s *Site) bool {
	b := s.Broadcast
	if !b.Enabled || len(b.ScheduledTimes) == 0 || b.FeedURL == "" {
		return false
	}
	switch b.SourceKind {
	case BroadcastSourcePage:
		if b.PageID == "" {
			return false
		}
		conn := s.findBusinessConnection(b.BusinessConnectionID)
		return conn != nil && conn.Connected && conn.AccessToken != ""
	case BroadcastSourceProfile:
		return b.ProfileURL != ""
	}
	return false
}

func hasAnyDestination(s *Site, platforms []Platform) bool {
	for _, platform := range platforms {
		if len(EnabledDestinations(s, platform)) > 0 {
			return true
		}
	}
	return false
}

func (s *Site) findBusinessConnection(id string) *BusinessConnection {
	for i := range s.BusinessConnections {
		if s.BusinessConnections[i].ID == id {
			return &s.BusinessConnections[i]
		}
	}
	return nil
}
