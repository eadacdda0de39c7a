package site

import (
	"context"
	"github.com/one-edge/portal/internal/registry"
)

// Fetcher defines the API used to retrieve raw site records
type Fetcher interface {
	// FetchSites fetches all site records visible to the given access token (empty for anonymous access)
	FetchSites(ctx context.Context, accessToken string) ([]registry.RawSiteRecord, error)
}

var _ Fetcher = (*registry.Client)(nil)

// Lister fetches site records and transforms them into summaries
type Lister struct {
	Fetcher Fetcher
}

// List fetches the sites visible to the given access token and returns their summaries in registry order.
// Fetch errors are returned unchanged so callers can match registry.ErrUnavailable and registry.ErrInvalidResponse.
func (lister *Lister) List(ctx context.Context, accessToken string) ([]Summary, error) {
	records, err := lister.Fetcher.FetchSites(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return Transform(records), nil
}
