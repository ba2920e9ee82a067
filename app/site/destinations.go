package site

// EnabledDestinations returns every destination account content can be posted
// to for a platform: individually connected accounts merged with assets
// delegated from the platform's business-suite connection, deduplicated by
// asset ID. Accounts with empty credentials or a stale non-connected status
// never count.
func EnabledDestinations(s *Site, platform Platform) []DestinationAccount {
	var destinations []DestinationAccount
	seen := make(map[string]bool)

	for _, account := range s.SocialAccounts {
		if account.Platform != platform {
			continue
		}
		if !account.Connected || !account.Enabled || account.AccessToken == "" {
			continue
		}
		if seen[account.ID] {
			continue
		}
		seen[account.ID] = true
		destinations = append(destinations, account)
	}

	for _, conn := range s.BusinessConnections {
		if !conn.Connected || conn.AccessToken == "" {
			continue
		}
		for _, asset := range conn.Assets {
			if asset.Platform != platform || !asset.Enabled {
				continue
			}
			if seen[asset.ID] {
				continue
			}
			seen[asset.ID] = true
			destinations = append(destinations, DestinationAccount{
				ID:          asset.ID,
				Platform:    asset.Platform,
				Name:        asset.Name,
				AccessToken: conn.AccessToken,
				Connected:   true,
				Enabled:     true,
			})
		}
	}

	return destinations
}
