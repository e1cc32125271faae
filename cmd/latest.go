package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/aero-news-crawler/internal/news"
)

const headingWidth = 72

func newLatestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:         "latest",
		Annotations: map[string]string{accessAnnotation: accessRead},
		Short:       "Print the most recently stored articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			articles, err := appInstance.Store().LatestByID(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load latest articles: %w", err)
			}
			renderLatest(cmd.OutOrStdout(), articles)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of articles to show")
	return cmd
}

func renderLatest(w io.Writer, articles []news.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Image Saved?", "Heading"})

	for _, a := range articles {
		saved := "No"
		if a.HasStoredImage() {
			saved = "Yes"
		}
		heading := strings.Join(strings.Fields(a.Heading), " ")
		t.AppendRow(table.Row{a.ID, saved, runewidth.Truncate(heading, headingWidth, "…")})
	}

	fmt.Fprintf(w, "\nLatest stored articles:\n")
	t.Render()
}
