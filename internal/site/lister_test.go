package site

import (
	"context"
	"github.com/one-edge/portal/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fakeFetcher struct {
	records []registry.RawSiteRecord
	err     error
	tokens  []string
}

func (fetcher *fakeFetcher) FetchSites(_ context.Context, accessToken string) ([]registry.RawSiteRecord, error) {
	fetcher.tokens = append(fetcher.tokens, accessToken)
	return fetcher.records, fetcher.err
}

func TestListerList(t *testing.T) {
	fetcher := &fakeFetcher{
		records: []registry.RawSiteRecord{
			{ID: str("b"), Spec: &registry.RawSiteSpec{Name: str("Second")}},
			{ID: str("a"), Spec: &registry.RawSiteSpec{Name: str("First"), Properties: map[string]string{"phone": "1"}}},
		},
	}
	lister := &Lister{Fetcher: fetcher}

	summaries, err := lister.List(context.Background(), "token-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"token-1"}, fetcher.tokens)
	assert.Equal(t, []Summary{
		{ID: "b", Name: "Second"},
		{ID: "a", Name: "First", Phone: "1"},
	}, summaries)
}

func TestListerListAnonymous(t *testing.T) {
	fetcher := &fakeFetcher{records: []registry.RawSiteRecord{}}
	lister := &Lister{Fetcher: fetcher}

	summaries, err := lister.List(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{""}, fetcher.tokens)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestListerListPropagatesTypedErrors(t *testing.T) {
	shapeErr := &registry.Error{Kind: registry.KindShape}
	lister := &Lister{Fetcher: &fakeFetcher{err: shapeErr}}

	summaries, err := lister.List(context.Background(), "token")
	assert.Nil(t, summaries)
	assert.ErrorIs(t, err, registry.ErrInvalidResponse)
	assert.Same(t, shapeErr, err)
}
