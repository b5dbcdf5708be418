package ui

import (
	"context"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/Ayash-Bera/reelscout/internal/session"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

const (
	defaultDebounce        = 200 * time.Millisecond
	defaultSuggestionLimit = 20
)

// App is the root Bubble Tea model. All session state lives in App.state and
// is only touched from Update; network calls run inside commands and come
// back as messages.
type App struct {
	fetchSuggestions     func(gen uint64, query string) tea.Cmd
	fetchRecommendations func(req session.Request) tea.Cmd
	checkHealth          func() tea.Cmd

	state    session.State
	debounce time.Duration
	cursor   int

	health     string
	healthErr  bool
	backendURL string

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width  int
	height int

	logger *logrus.Logger
}

// AppConfig holds the configuration for creating a new App. When Backend is
// set, any nil Fetch*/CheckHealth function is derived from it.
type AppConfig struct {
	Backend         recommender.Backend
	BackendURL      string
	Debounce        time.Duration
	SuggestionLimit int
	DefaultTopK     int
	Logger          *logrus.Logger

	FetchSuggestions     func(gen uint64, query string) tea.Cmd
	FetchRecommendations func(req session.Request) tea.Cmd
	CheckHealth          func() tea.Cmd
}

func NewApp(cfg AppConfig) App {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = defaultSuggestionLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetLevel(logrus.PanicLevel)
	}
	if cfg.Backend != nil {
		if cfg.FetchSuggestions == nil {
			cfg.FetchSuggestions = suggestionsCmd(cfg.Backend, cfg.SuggestionLimit)
		}
		if cfg.FetchRecommendations == nil {
			cfg.FetchRecommendations = recommendationsCmd(cfg.Backend)
		}
		if cfg.CheckHealth == nil {
			cfg.CheckHealth = healthCmd(cfg.Backend)
		}
	}

	ti := textinput.New()
	ti.Placeholder = "e.g., Toy Story (1995)"
	ti.Prompt = "🔎 "
	ti.CharLimit = 200
	ti.Width = 48
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return App{
		fetchSuggestions:     cfg.FetchSuggestions,
		fetchRecommendations: cfg.FetchRecommendations,
		checkHealth:          cfg.CheckHealth,
		state:                session.New(cfg.DefaultTopK),
		debounce:             cfg.Debounce,
		backendURL:           cfg.BackendURL,
		input:                ti,
		spinner:              s,
		help:                 help.New(),
		keys:                 defaultKeyMap(),
		logger:               cfg.Logger,
	}
}

func suggestionsCmd(b recommender.Backend, limit int) func(uint64, string) tea.Cmd {
	return func(gen uint64, query string) tea.Cmd {
		return func() tea.Msg {
			titles, err := b.FetchSuggestions(context.Background(), query, limit)
			return SuggestionsLoaded{Gen: gen, Titles: titles, Err: err}
		}
	}
}

func recommendationsCmd(b recommender.Backend) func(session.Request) tea.Cmd {
	return func(req session.Request) tea.Cmd {
		return func() tea.Msg {
			items, err := b.FetchRecommendations(context.Background(), req.Title, req.TopK)
			return RecommendationsLoaded{Gen: req.Gen, Items: items, Err: err}
		}
	}
}

func healthCmd(b recommender.Backend) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return HealthChecked{Err: b.Health(ctx)}
		}
	}
}

// Init checks the backend once so the status line can report it.
func (a App) Init() tea.Cmd {
	if a.checkHealth != nil {
		return a.checkHealth()
	}
	return nil
}

// State returns a copy of the session state.
func (a App) State() session.State {
	return a.state
}

// Cursor returns the highlighted suggestion index.
func (a App) Cursor() int {
	return a.cursor
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case DebounceElapsed:
		query, ok := a.state.Settled(msg.Gen)
		if !ok || a.fetchSuggestions == nil {
			return a, nil
		}
		a.logger.WithFields(logrus.Fields{"query": query, "gen": msg.Gen}).Debug("Fetching suggestions")
		return a, a.fetchSuggestions(msg.Gen, query)

	case SuggestionsLoaded:
		if msg.Err != nil {
			a.logger.WithError(msg.Err).Debug("Suggestion fetch failed")
		}
		if !a.state.ApplySuggestions(msg.Gen, msg.Titles, msg.Err) {
			a.logger.WithField("gen", msg.Gen).Debug("Discarded stale suggestions")
			return a, nil
		}
		a.clampCursor()
		return a, nil

	case RecommendationsLoaded:
		if msg.Err != nil {
			a.logger.WithError(msg.Err).Warn("Recommendation fetch failed")
		}
		if !a.state.FinishRecommend(msg.Gen, msg.Items, msg.Err) {
			a.logger.WithField("gen", msg.Gen).Debug("Discarded stale recommendations")
		}
		return a, nil

	case HealthChecked:
		if msg.Err != nil {
			a.health = "backend unreachable"
			a.healthErr = true
			a.logger.WithError(msg.Err).Warn("Backend health check failed")
		} else {
			a.health = "backend ok"
			a.healthErr = false
		}
		return a, nil

	case spinner.TickMsg:
		if a.state.Loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.state.Close()
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.state.Suggestions)-1 {
			a.cursor++
		}
		return a, nil
	case key.Matches(msg, a.keys.Select):
		if a.cursor < len(a.state.Suggestions) {
			a.state.Select(a.state.Suggestions[a.cursor])
		}
		return a, nil
	case key.Matches(msg, a.keys.Recommend):
		return a.recommend()
	case key.Matches(msg, a.keys.MoreTopK):
		a.adjustTopK(1)
		return a, nil
	case key.Matches(msg, a.keys.LessTopK):
		a.adjustTopK(-1)
		return a, nil
	case key.Matches(msg, a.keys.Clear):
		a.input.SetValue("")
		return a.queryChanged()
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() == before {
		return a, cmd
	}

	model, debounceCmd := a.queryChanged()
	return model, tea.Batch(cmd, debounceCmd)
}

// queryChanged records the new input value and starts the quiet period.
// Superseded ticks still fire but Settled rejects them before any fetch.
func (a App) queryChanged() (App, tea.Cmd) {
	gen, schedule := a.state.SetQuery(a.input.Value())
	a.clampCursor()
	if !schedule {
		return a, nil
	}
	return a, tea.Tick(a.debounce, func(time.Time) tea.Msg {
		return DebounceElapsed{Gen: gen}
	})
}

func (a App) recommend() (tea.Model, tea.Cmd) {
	req, err := a.state.BeginRecommend()
	if err != nil {
		a.logger.WithError(err).Debug("Recommend ignored")
		return a, nil
	}
	if a.fetchRecommendations == nil {
		a.state.FinishRecommend(req.Gen, nil, recommender.ErrRecommendationsFailed)
		return a, nil
	}

	a.logger.WithFields(logrus.Fields{
		"title": req.Title,
		"top_k": req.TopK,
		"gen":   req.Gen,
	}).Info("Requesting recommendations")

	return a, tea.Batch(a.fetchRecommendations(req), a.spinner.Tick)
}

// adjustTopK steps the recommendation count, staying put at the bounds.
func (a *App) adjustTopK(delta int) {
	if err := a.state.SetTopK(a.state.TopK + delta); err != nil {
		a.logger.WithError(err).WithField("top_k", a.state.TopK).Debug("Top K unchanged")
	}
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.state.Suggestions) {
		a.cursor = len(a.state.Suggestions) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}
