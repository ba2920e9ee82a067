package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/site"
)

// fanOut posts a caption and media URL to every enabled destination across
// the given platforms. One destination failing does not stop the others: the
// per-destination outcome goes into the returned results, and the aggregated
// error reports which destinations failed.
func fanOut(ctx context.Context, socialPublisher content.SocialPublisher, s *site.Site, platforms []site.Platform, caption, mediaURL string) ([]site.FanOutResult, error) {
	var results []site.FanOutResult
	var errs *multierror.Error

	for _, platform := range platforms {
		for _, account := range site.EnabledDestinations(s, platform) {
			err := socialPublisher.PostToSocial(ctx, platform, account, caption, mediaURL)
			if err != nil {
				slog.Warn("Social post failed", "site", s.Name, "platform", string(platform), "destination", account.ID, "error", err)
				errs = multierror.Append(errs, fmt.Errorf("%s/%s: %w", platform, account.ID, err))
				results = append(results, site.FanOutResult{
					DestinationID: account.ID,
					Platform:      platform,
					Success:       false,
					Message:       err.Error(),
				})
				continue
			}

			results = append(results, site.FanOutResult{
				DestinationID: account.ID,
				Platform:      platform,
				Success:       true,
			})
		}
	}

	return results, errs.ErrorOrNil()
}
