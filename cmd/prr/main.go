package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/adapter/cli"
	gitadapter "github.com/bkyoung/pr-reviewer/internal/adapter/git"
	githubadapter "github.com/bkyoung/pr-reviewer/internal/adapter/github"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/openai"
	"github.com/bkyoung/pr-reviewer/internal/adapter/observability"
	"github.com/bkyoung/pr-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/pr-reviewer/internal/config"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	usecasegithub "github.com/bkyoung/pr-reviewer/internal/usecase/github"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// version is set at build time via -ldflags.
var version = "v0.1.0"

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return
		}
		// Redact tokens from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "prr",
		EnvPrefix:   "PRR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	level, format := loggingSettings(cfg.Observability.Logging)

	retryConf := buildRetryConfig(cfg.HTTP)
	timeout := parseDuration(cfg.HTTP.Timeout, 60*time.Second)

	host := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		host.SetBaseURL(cfg.GitHub.BaseURL)
	}
	host.SetTimeout(timeout)
	host.SetRetryConfig(retryConf)

	generator := openai.NewClient(cfg.Provider.APIKey, cfg.Provider.Model)
	if cfg.Provider.BaseURL != "" {
		generator.SetBaseURL(cfg.Provider.BaseURL)
	}
	generator.SetTimeout(timeout)
	generator.SetRetryConfig(retryConf)
	if cfg.Observability.Logging.Enabled {
		generator.SetLogger(llmhttp.NewDefaultLogger(level, format, cfg.Observability.Logging.RedactAPIKeys))
	}

	var reviewLogger review.Logger
	if cfg.Observability.Logging.Enabled {
		reviewLogger = observability.NewReviewLogger(level, format)
	}

	var store review.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				store = sqliteStore
				defer store.Close()
			}
		}
	}

	runner := &pipelineRunner{
		host:   host,
		store:  store,
		logger: reviewLogger,
		dispatcher: review.NewDispatcher(generator, review.DispatcherConfig{
			MaxPatchChars:  cfg.Review.MaxPatchChars,
			MaxTokens:      cfg.Provider.MaxTokens,
			NoIssuesMarker: cfg.Review.NoIssuesMarker,
		}, reviewLogger),
		ignoreList: cfg.Review.IgnoreList,
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:   runner,
		Defaults: resolveDefaults(cfg),
		Version:  version,
	})

	return root.ExecuteContext(ctx)
}

// pipelineRunner builds the per-request pieces (poster, orchestrator)
// and runs the pipeline. The poster is bound to one PR, so it cannot
// be constructed until flags are resolved.
type pipelineRunner struct {
	host       *githubadapter.Client
	dispatcher *review.Dispatcher
	store      review.Store
	logger     review.Logger
	ignoreList string
}

func (r *pipelineRunner) Run(ctx context.Context, req review.Request) (domain.RunSummary, error) {
	poster := usecasegithub.NewCommentPoster(r.host, req.Owner, req.Repo, req.PullNumber)
	orchestrator := review.NewOrchestrator(review.OrchestratorDeps{
		Host:       r.host,
		Narrower:   review.NewRangeNarrower(r.host, r.ignoreList),
		Dispatcher: r.dispatcher,
		Poster:     poster,
		Store:      r.store,
		Logger:     r.logger,
	})
	return orchestrator.Run(ctx, req)
}

// resolveDefaults fills flag defaults from config, falling back to the
// origin remote of the current checkout for owner/repo.
func resolveDefaults(cfg config.Config) cli.Defaults {
	defaults := cli.Defaults{
		Owner:      cfg.GitHub.Owner,
		Repo:       cfg.GitHub.Repo,
		PullNumber: cfg.GitHub.PullNumber,
		Mode:       cfg.Review.Mode,
		WholePR:    cfg.Review.WholePR,
	}

	if defaults.Owner == "" || defaults.Repo == "" {
		engine := gitadapter.NewEngine(".")
		if owner, repo, err := engine.OriginSlug(); err == nil {
			if defaults.Owner == "" {
				defaults.Owner = owner
			}
			if defaults.Repo == "" {
				defaults.Repo = repo
			}
		}
	}

	return defaults
}

// loggingSettings maps config strings to logger settings. The format
// defaults to human on a terminal and JSON otherwise.
func loggingSettings(cfg config.LoggingConfig) (llmhttp.LogLevel, llmhttp.LogFormat) {
	level := llmhttp.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = llmhttp.LogLevelDebug
	case "error":
		level = llmhttp.LogLevelError
	}

	format := llmhttp.LogFormatHuman
	switch cfg.Format {
	case "json":
		format = llmhttp.LogFormatJSON
	case "human":
		format = llmhttp.LogFormatHuman
	default:
		if !review.IsOutputTerminal() {
			format = llmhttp.LogFormatJSON
		}
	}

	return level, format
}

func buildRetryConfig(cfg config.HTTPConfig) llmhttp.RetryConfig {
	conf := llmhttp.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		conf.MaxRetries = cfg.MaxRetries
	}
	conf.InitialBackoff = parseDuration(cfg.InitialBackoff, conf.InitialBackoff)
	conf.MaxBackoff = parseDuration(cfg.MaxBackoff, conf.MaxBackoff)
	if cfg.BackoffMultiplier > 0 {
		conf.Multiplier = cfg.BackoffMultiplier
	}
	return conf
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("warning: invalid duration %q, using %s", s, fallback)
		return fallback
	}
	return d
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "prr"))
	}
	return paths
}
