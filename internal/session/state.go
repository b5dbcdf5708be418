// Package session holds the state of one search-suggest-recommend session.
//
// A State has exactly one owner, the event loop that feeds it input events
// and asynchronous completions, so it carries no locks. Asynchronous work is
// tagged with a generation number when it starts; a completion whose
// generation is no longer current is discarded instead of applied.
package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/reelscout/internal/config"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
)

const DefaultTopK = 5

var (
	ErrNoSelection    = errors.New("no movie selected")
	ErrBusy           = errors.New("recommendation request already in flight")
	ErrTopKOutOfRange = errors.New("top k must be between 1 and 15")
)

// FallbackError is shown when a failed recommendation request carries no
// message of its own.
const FallbackError = "Failed to fetch recommendations"

type State struct {
	Query       string
	Suggestions []string
	Selected    string
	TopK        int

	// Recs is nil until a request succeeds and again after a failure.
	// A successful request with no results leaves it non-nil and empty.
	Recs    []recommender.RecommendItem
	Loading bool
	Err     string

	QueryGen uint64
	RecGen   uint64
	Closed   bool
}

// Request describes a recommendation call the owner must perform and report
// back through FinishRecommend.
type Request struct {
	Gen   uint64
	Title string
	TopK  int
}

func New(defaultTopK int) State {
	if defaultTopK < config.MinTopK || defaultTopK > config.MaxTopK {
		defaultTopK = DefaultTopK
	}
	return State{
		Suggestions: []string{},
		TopK:        defaultTopK,
	}
}

// SetQuery records a query change and invalidates every suggestion fetch
// started for an earlier value. For a blank query the suggestion list is
// cleared at once and nothing is scheduled. Otherwise the caller should
// start its quiet-period timer tagged with gen.
func (s *State) SetQuery(q string) (gen uint64, schedule bool) {
	s.Query = q
	s.QueryGen++
	if strings.TrimSpace(q) == "" {
		s.Suggestions = []string{}
		return s.QueryGen, false
	}
	return s.QueryGen, !s.Closed
}

// Settled is called when the quiet-period timer tagged gen fires. It
// returns the query to fetch suggestions for, or ok=false when the timer
// was superseded and must be ignored.
func (s *State) Settled(gen uint64) (query string, ok bool) {
	if s.Closed || gen != s.QueryGen || strings.TrimSpace(s.Query) == "" {
		return "", false
	}
	return s.Query, true
}

// ApplySuggestions applies the outcome of the fetch tagged gen. Failures
// clear the list without surfacing an error. It reports whether the
// outcome was applied.
func (s *State) ApplySuggestions(gen uint64, titles []string, err error) bool {
	if s.Closed || gen != s.QueryGen {
		return false
	}
	if err != nil || titles == nil {
		s.Suggestions = []string{}
		return true
	}
	s.Suggestions = titles
	return true
}

// Select marks title as the recommendation seed. An empty title clears the
// selection.
func (s *State) Select(title string) {
	s.Selected = title
}

// SetTopK rejects values outside [1,15] and leaves the state unchanged.
func (s *State) SetTopK(k int) error {
	if err := ValidateTopK(k); err != nil {
		return err
	}
	s.TopK = k
	return nil
}

// CanRecommend reports whether BeginRecommend would start a request.
func (s *State) CanRecommend() bool {
	return !s.Closed && s.Selected != "" && !s.Loading
}

// BeginRecommend starts a recommendation request for the selected title.
// Without a selection it is a no-op returning ErrNoSelection.
func (s *State) BeginRecommend() (Request, error) {
	if s.Closed || s.Selected == "" {
		return Request{}, ErrNoSelection
	}
	if s.Loading {
		return Request{}, ErrBusy
	}
	s.Loading = true
	s.Err = ""
	s.RecGen++
	return Request{Gen: s.RecGen, Title: s.Selected, TopK: s.TopK}, nil
}

// FinishRecommend applies the outcome of the request tagged gen and clears
// the loading flag. Outcomes of superseded requests are discarded.
func (s *State) FinishRecommend(gen uint64, items []recommender.RecommendItem, err error) bool {
	if s.Closed || gen != s.RecGen || !s.Loading {
		return false
	}
	defer func() { s.Loading = false }()

	if err != nil {
		s.Err = ErrorMessage(err)
		s.Recs = nil
		return true
	}
	if items == nil {
		items = []recommender.RecommendItem{}
	}
	s.Recs = items
	s.Err = ""
	return true
}

// Requested reports whether a recommendation request has succeeded and its
// results are on display, possibly as an empty list.
func (s *State) Requested() bool {
	return s.Recs != nil
}

// Close tears the session down. Pending timers and in-flight completions
// are ignored from then on.
func (s *State) Close() {
	s.Closed = true
	s.Loading = false
}

// ErrorMessage turns a failed recommendation request into the text shown to
// the user. Errors from the backend client map to the fixed fallback; other
// errors use their own message when they have one.
func ErrorMessage(err error) string {
	if err == nil || errors.Is(err, recommender.ErrRecommendationsFailed) {
		return FallbackError
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackError
}

// ValidateTopK checks the declared [1,15] range.
func ValidateTopK(k int) error {
	if k < config.MinTopK || k > config.MaxTopK {
		return ErrTopKOutOfRange
	}
	return nil
}

// ParseTopK reads a user-entered result count. Blank input means the
// default; anything that is not an integer in [1,15] is rejected.
func ParseTopK(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTopK, nil
	}
	k, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrTopKOutOfRange
	}
	if err := ValidateTopK(k); err != nil {
		return 0, err
	}
	return k, nil
}
