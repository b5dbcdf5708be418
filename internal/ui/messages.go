// Package ui provides the Bubble Tea terminal UI for reelscout.
package ui

import "github.com/Ayash-Bera/reelscout/internal/recommender"

// DebounceElapsed is sent when the quiet period after a query change ends.
type DebounceElapsed struct {
	Gen uint64
}

// SuggestionsLoaded is sent when a suggestion fetch completes.
type SuggestionsLoaded struct {
	Gen    uint64
	Titles []string
	Err    error
}

// RecommendationsLoaded is sent when a recommendation fetch completes.
type RecommendationsLoaded struct {
	Gen   uint64
	Items []recommender.RecommendItem
	Err   error
}

// HealthChecked is sent once at startup after probing the backend.
type HealthChecked struct {
	Err error
}
