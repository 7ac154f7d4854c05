package cmd

import (
	"fmt"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/drafts"
)

// NewDraftStore creates the Redis-backed draft store. An empty URL
// disables drafts and returns nil.
func NewDraftStore(redisURL string) (*drafts.Store, error) {
	if redisURL == "" {
		return nil, nil
	}

	store, err := drafts.NewStoreFromURL(redisURL, drafts.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft store: %w", err)
	}

	return store, nil
}
