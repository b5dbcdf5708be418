package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/reelscout/internal/config"
	"github.com/Ayash-Bera/reelscout/internal/posters"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/Ayash-Bera/reelscout/internal/session"
	"github.com/Ayash-Bera/reelscout/internal/ui"
	"github.com/Ayash-Bera/reelscout/pkg/utils"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

const usage = `Usage:
  reelscout                      start the interactive recommender
  reelscout suggest <query>      list titles matching query
  reelscout recommend [-k N] <title>
                                 list up to N (1-15) similar movies
`

func main() {
	// .env is optional for the client
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		os.Exit(runTUI(cfg))
	}

	logger := utils.NewLogger(os.Stderr, cfg.Log.Level)
	backend := recommender.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout}, logger)
	resolver := posters.NewResolver(posters.Config{
		APIKey:         cfg.TMDB.APIKey,
		BaseURL:        cfg.TMDB.BaseURL,
		ImageBaseURL:   cfg.TMDB.ImageBaseURL,
		PlaceholderURL: cfg.TMDB.PlaceholderURL,
	}, nil, logger)
	os.Exit(run(context.Background(), cfg, backend, resolver, os.Args[1:], os.Stdout, os.Stderr))
}

func runTUI(cfg *config.Config) int {
	logger, closer, err := utils.NewFileLogger(cfg.UI.LogFile, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return 1
	}
	defer closer.Close()

	backend := recommender.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout}, logger)

	app := ui.NewApp(ui.AppConfig{
		Backend:         backend,
		BackendURL:      backend.BaseURL(),
		Debounce:        cfg.UI.Debounce,
		SuggestionLimit: cfg.UI.SuggestionLimit,
		DefaultTopK:     cfg.UI.DefaultTopK,
		Logger:          logger,
	})

	logger.WithField("backend", backend.BaseURL()).Info("Starting terminal UI")
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logger.WithError(err).Error("Terminal UI failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// run executes a one-shot subcommand and returns the process exit code.
// resolver may be nil; recommend then prints no poster lines.
func run(ctx context.Context, cfg *config.Config, backend recommender.Backend, resolver *posters.Resolver, args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "suggest":
		return runSuggest(ctx, cfg, backend, args[1:], stdout, stderr)
	case "recommend":
		return runRecommend(ctx, cfg, backend, resolver, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

func runSuggest(ctx context.Context, cfg *config.Config, backend recommender.Backend, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("n", cfg.UI.SuggestionLimit, "Maximum number of suggestions")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprint(stderr, usage)
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(stderr, "-n must be positive")
		return 2
	}

	titles, err := backend.FetchSuggestions(ctx, query, *limit)
	if err != nil {
		fmt.Fprintln(stderr, recommender.ErrSuggestionsFailed.Error())
		return 1
	}
	if len(titles) == 0 {
		fmt.Fprintln(stdout, "No matching titles.")
		return 0
	}
	for _, title := range titles {
		fmt.Fprintln(stdout, title)
	}
	return 0
}

func runRecommend(ctx context.Context, cfg *config.Config, backend recommender.Backend, resolver *posters.Resolver, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	k := fs.String("k", strconv.Itoa(cfg.UI.DefaultTopK), "Number of recommendations (1-15)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	topK, err := session.ParseTopK(*k)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fmt.Fprint(stderr, usage)
		return 2
	}

	items, err := backend.FetchRecommendations(ctx, title, topK)
	if err != nil {
		fmt.Fprintln(stderr, session.ErrorMessage(err))
		return 1
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "No recommendations found. Try another title.")
		return 0
	}

	for i, item := range resolver.Annotate(ctx, items) {
		line := fmt.Sprintf("%2d. %s", i+1, item.Title)
		if genres := item.GenresText(); genres != "" {
			line += "  [" + genres + "]"
		}
		fmt.Fprintf(stdout, "%s  Similarity: %.2f\n", line, item.Score)
		if item.Poster != "" {
			fmt.Fprintf(stdout, "    Poster: %s\n", item.Poster)
		}
	}
	return 0
}
