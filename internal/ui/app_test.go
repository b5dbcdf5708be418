package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every call made through it.
type fakeBackend struct {
	mu          sync.Mutex
	suggestions map[string][]string
	recs        []recommender.RecommendItem
	recErr      error
	suggestErr  error
	healthErr   error

	suggestCalls []string
	recCalls     []string
}

func (f *fakeBackend) FetchSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestCalls = append(f.suggestCalls, query)
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.suggestions[query], nil
}

func (f *fakeBackend) FetchRecommendations(ctx context.Context, title string, topK int) ([]recommender.RecommendItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recCalls = append(f.recCalls, fmt.Sprintf("%s|%d", title, topK))
	if f.recErr != nil {
		return nil, f.recErr
	}
	return f.recs, nil
}

func (f *fakeBackend) Health(ctx context.Context) error {
	return f.healthErr
}

func newTestApp(b *fakeBackend) App {
	return NewApp(AppConfig{
		Backend:     b,
		Debounce:    time.Millisecond,
		DefaultTopK: 5,
	})
}

// run executes cmd and flattens batches into the resulting messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, run(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

func typeText(t *testing.T, a App, text string) (App, tea.Cmd) {
	t.Helper()
	return update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// settle feeds every message produced by cmd back into the app until no
// more commands are produced.
func settle(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	queue := run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		var next tea.Cmd
		a, next = update(t, a, msg)
		queue = append(queue, run(next)...)
	}
	return a
}

func debounceGen(t *testing.T, cmd tea.Cmd) uint64 {
	t.Helper()
	for _, msg := range run(cmd) {
		if d, ok := msg.(DebounceElapsed); ok {
			return d.Gen
		}
	}
	require.Fail(t, "expected a DebounceElapsed message")
	return 0
}

func TestAppInit(t *testing.T) {
	app := newTestApp(&fakeBackend{})

	msgs := run(app.Init())
	require.Len(t, msgs, 1)
	assert.IsType(t, HealthChecked{}, msgs[0])
}

func TestAppInitNilBackend(t *testing.T) {
	app := NewApp(AppConfig{})
	assert.Nil(t, app.Init())
}

func TestHealthStatusShown(t *testing.T) {
	app := newTestApp(&fakeBackend{})

	app, _ = update(t, app, HealthChecked{Err: errors.New("dial tcp: refused")})
	assert.Contains(t, app.View(), "backend unreachable")

	app, _ = update(t, app, HealthChecked{})
	assert.Contains(t, app.View(), "backend ok")
}

func TestSuggestionRoundTrip(t *testing.T) {
	backend := &fakeBackend{suggestions: map[string][]string{
		"toy": {"Toy Story (1995)", "Toy Story 2 (1999)"},
	}}
	app := newTestApp(backend)

	app, cmd := typeText(t, app, "toy")
	app = settle(t, app, cmd)

	assert.Equal(t, []string{"Toy Story (1995)", "Toy Story 2 (1999)"}, app.State().Suggestions)
	assert.Len(t, backend.suggestCalls, 1)
}

func TestDebounce_OneFetchPerSettledQuery(t *testing.T) {
	backend := &fakeBackend{suggestions: map[string][]string{
		"AB": {"Abyss (1989)"},
	}}
	app := newTestApp(backend)

	app, cmdA := typeText(t, app, "A")
	app, cmdB := typeText(t, app, "B")

	genA := debounceGen(t, cmdA)
	genB := debounceGen(t, cmdB)

	app, fetch := update(t, app, DebounceElapsed{Gen: genA})
	require.Nil(t, fetch, "superseded debounce tick must not fetch")

	app, fetch = update(t, app, DebounceElapsed{Gen: genB})
	require.NotNil(t, fetch, "current debounce tick should fetch")
	app = settle(t, app, fetch)

	assert.Equal(t, []string{"AB"}, backend.suggestCalls)
	assert.Len(t, app.State().Suggestions, 1)
}

func TestStaleSuggestionsDiscarded(t *testing.T) {
	app := newTestApp(&fakeBackend{})

	app, cmdA := typeText(t, app, "A")
	genA := debounceGen(t, cmdA)
	app, fetchA := update(t, app, DebounceElapsed{Gen: genA})
	require.NotNil(t, fetchA)

	app, cmdB := typeText(t, app, "B")
	genB := debounceGen(t, cmdB)

	app, _ = update(t, app, SuggestionsLoaded{Gen: genB, Titles: []string{"Big (1988)"}})
	app, _ = update(t, app, SuggestionsLoaded{Gen: genA, Titles: []string{"Alien (1979)"}})

	assert.Equal(t, []string{"Big (1988)"}, app.State().Suggestions, "late result for A overwrote B")
}

func TestBlankQueryClearsWithoutFetch(t *testing.T) {
	backend := &fakeBackend{suggestions: map[string][]string{"t": {"Tron (1982)"}}}
	app := newTestApp(backend)

	app, cmd := typeText(t, app, "t")
	app = settle(t, app, cmd)
	require.Len(t, app.State().Suggestions, 1)

	app, cmd = update(t, app, tea.KeyMsg{Type: tea.KeyBackspace})
	for _, msg := range run(cmd) {
		_, scheduled := msg.(DebounceElapsed)
		assert.False(t, scheduled, "blank query must not schedule a fetch")
	}
	assert.Empty(t, app.State().Suggestions)

	app, cmd = typeText(t, app, "   ")
	assert.Nil(t, cmd, "whitespace-only query must not schedule a fetch")
	assert.Len(t, backend.suggestCalls, 1)
}

func TestSuggestionFailureIsSilent(t *testing.T) {
	backend := &fakeBackend{suggestErr: recommender.ErrSuggestionsFailed}
	app := newTestApp(backend)

	app, cmd := typeText(t, app, "toy")
	app = settle(t, app, cmd)

	assert.Empty(t, app.State().Suggestions)
	assert.Empty(t, app.State().Err)
}

func TestClearKeyResetsQuery(t *testing.T) {
	backend := &fakeBackend{suggestions: map[string][]string{"toy": {"Toy Story (1995)"}}}
	app := newTestApp(backend)

	app, cmd := typeText(t, app, "toy")
	app = settle(t, app, cmd)

	app, cmd = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Empty(t, app.State().Query)
	assert.Empty(t, app.State().Suggestions)
}

func TestNavigationAndSelect(t *testing.T) {
	backend := &fakeBackend{suggestions: map[string][]string{
		"toy": {"Toy Story (1995)", "Toy Story 2 (1999)", "Toys (1992)"},
	}}
	app := newTestApp(backend)
	app, cmd := typeText(t, app, "toy")
	app = settle(t, app, cmd)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, app.Cursor(), "down at bottom should keep the cursor")

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Toy Story 2 (1999)", app.State().Selected)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.Cursor(), "up at top should keep the cursor")
}

func TestRecommendWithoutSelectionIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	app := newTestApp(backend)

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
	assert.False(t, app.State().Loading)
	assert.Empty(t, backend.recCalls)
}

func selectTitle(t *testing.T, app App, title string) App {
	t.Helper()
	gen := app.State().QueryGen
	app, _ = update(t, app, SuggestionsLoaded{Gen: gen, Titles: []string{title}})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, title, app.State().Selected)
	return app
}

func TestRecommendSuccess(t *testing.T) {
	backend := &fakeBackend{recs: []recommender.RecommendItem{{Title: "Toy Story (1995)", Score: 0.91}}}
	app := newTestApp(backend)
	app.width = 120
	app = selectTitle(t, app, "Toy Story (1995)")

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, app.State().Loading, "loading should be true while the request is in flight")
	assert.Contains(t, app.View(), "Loading…")

	app = settle(t, app, cmd)

	state := app.State()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Err)
	assert.Equal(t, []string{"Toy Story (1995)|5"}, backend.recCalls)

	view := app.View()
	assert.Contains(t, view, "Toy Story (1995)")
	assert.Contains(t, view, "Similarity: 0.91")
}

func TestRecommendFailure(t *testing.T) {
	backend := &fakeBackend{recs: []recommender.RecommendItem{{Title: "Heat (1995)", Score: 0.5}}}
	app := newTestApp(backend)
	app = selectTitle(t, app, "Casino (1995)")

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	app = settle(t, app, cmd)
	require.NotNil(t, app.State().Recs)

	backend.recErr = fmt.Errorf("%w: API request failed with status 500", recommender.ErrRecommendationsFailed)
	app, cmd = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	app = settle(t, app, cmd)

	state := app.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Recs, "failure should clear previous recommendations")
	assert.Equal(t, "Failed to fetch recommendations", state.Err)

	view := app.View()
	assert.Contains(t, view, "Failed to fetch recommendations")
	assert.NotContains(t, view, "Similarity:")
}

func TestRecommendEmptyResult(t *testing.T) {
	backend := &fakeBackend{recs: []recommender.RecommendItem{}}
	app := newTestApp(backend)
	app = selectTitle(t, app, "Obscure (2001)")

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	app = settle(t, app, cmd)

	assert.Contains(t, app.View(), "No recommendations found. Try another title.")
}

func TestRecommendIgnoredWhileLoading(t *testing.T) {
	backend := &fakeBackend{}
	app := newTestApp(backend)
	app = selectTitle(t, app, "Heat (1995)")

	app, first := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, first)
	_, second := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, second, "second request while loading should be ignored")
}

func TestStaleRecommendationsDiscarded(t *testing.T) {
	app := newTestApp(&fakeBackend{})
	app = selectTitle(t, app, "Heat (1995)")

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	app, _ = update(t, app, RecommendationsLoaded{Gen: 0, Items: []recommender.RecommendItem{{Title: "ghost"}}})

	assert.True(t, app.State().Loading, "stale completion must not clear loading of the live request")
	assert.Nil(t, app.State().Recs)
}

func TestTopKBounds(t *testing.T) {
	app := newTestApp(&fakeBackend{})

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 6, app.State().TopK)

	for i := 0; i < 20; i++ {
		app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyPgUp})
	}
	assert.Equal(t, 15, app.State().TopK, "top k should stop at 15")

	for i := 0; i < 20; i++ {
		app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyPgDown})
	}
	assert.Equal(t, 1, app.State().TopK, "top k should stop at 1")
	assert.Contains(t, app.View(), "Top K: 1")
}

func TestQuitTearsDown(t *testing.T) {
	app := newTestApp(&fakeBackend{})

	app, cmd := typeText(t, app, "toy")
	gen := debounceGen(t, cmd)

	app, cmd = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd, "ctrl+c should quit")
	assert.IsType(t, tea.QuitMsg{}, cmd())

	app, fetch := update(t, app, DebounceElapsed{Gen: gen})
	assert.Nil(t, fetch, "timer firing after teardown must not fetch")

	app, _ = update(t, app, SuggestionsLoaded{Gen: gen, Titles: []string{"Toy Story (1995)"}})
	assert.Empty(t, app.State().Suggestions, "completion after teardown must be ignored")
}
