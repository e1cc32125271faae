package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/app"
	"github.com/JakeFAU/aero-news-crawler/internal/config"
	"github.com/JakeFAU/aero-news-crawler/internal/dispatcher"
	"github.com/JakeFAU/aero-news-crawler/internal/logging"
	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use, so tests can
// inject a fake.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	Store() news.Store
	ImageDir() string
	Dispatcher() *dispatcher.Dispatcher
	Close()
}

// accessAnnotation marks commands that only read stored articles. They get
// an App built without ingestion services that never writes.
const (
	accessAnnotation = "access"
	accessRead       = "read"
)

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgPath string, readOnly bool) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	build := app.New
	if readOnly {
		build = app.NewReader
	}
	a, err := build(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

// rootState carries the app built by the pre-run hook so Execute can close it
// even when a subcommand fails.
type rootState struct {
	cfgFile string
	app     App
}

func newRootCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newscrawler",
		Short: "Ingests aviation news articles into a deduplicated store.",
		Long: `newscrawler visits a list of aviation news sites, extracts recent articles,
classifies them into a fixed taxonomy, saves their lead images, and stores
each article once. Stored articles can be browsed over HTTP or listed on
the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			readOnly := cmd.Annotations[accessAnnotation] == accessRead
			appInstance, err := newApp(cmd.Context(), state.cfgFile, readOnly)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			state.app = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&state.cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLatestCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// run executes the CLI with args and returns the first error.
func run(ctx context.Context, args []string) error {
	state := &rootState{}
	root := newRootCmd(state)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if state.app != nil {
		state.app.Close()
	}
	return err
}

// Execute is the main entry point.
func Execute() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
