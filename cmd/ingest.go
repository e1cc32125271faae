package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
	"github.com/JakeFAU/aero-news-crawler/internal/sites"
)

func newIngestCmd() *cobra.Command {
	var sitesFile string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass over the site list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if appInstance.Dispatcher() == nil {
				return errors.New("ingest requires a writable application")
			}
			path := appInstance.Config().Sites.File
			if sitesFile != "" {
				path = sitesFile
			}
			siteList, err := sites.Load(path)
			if err != nil {
				return fmt.Errorf("load sites: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary := appInstance.Dispatcher().Run(ctx, siteList)
			logSummary(appInstance.Logger(), summary)
			if ctx.Err() != nil && cmd.Context().Err() == nil {
				appInstance.Logger().Info("ingest interrupted by signal")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sitesFile, "sites", "", "site list file (overrides sites.file)")
	return cmd
}

func logSummary(logger *zap.Logger, summary news.Summary) {
	for _, o := range summary.Sites {
		fields := []zap.Field{
			zap.String("run_id", summary.RunID),
			zap.String("site", o.Site),
			zap.Int("attempted", o.Attempted),
			zap.Int("accepted", o.Accepted),
		}
		for outcome, n := range o.Candidates {
			fields = append(fields, zap.Int(string(outcome), n))
		}
		if o.Err != nil {
			logger.Warn("site failed", append(fields, zap.Error(o.Err))...)
			continue
		}
		logger.Info("site summary", fields...)
	}
	logger.Info("ingest finished",
		zap.String("run_id", summary.RunID),
		zap.Int("sites", len(summary.Sites)),
		zap.Int("failed_sites", summary.Failed),
		zap.Int("attempted", summary.Attempted),
		zap.Int("accepted", summary.Accepted),
	)
}

