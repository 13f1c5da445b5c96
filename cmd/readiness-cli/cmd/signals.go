package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readiness-workers/internal/app"
	"readiness-workers/internal/archive"
)

var signalsQuery archive.SearchQuery

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Search archived market signals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, app.Options{Archive: true}, func(ctx context.Context, svc *app.App) error {
			if svc.Archive == nil {
				return fmt.Errorf("elasticsearch is not configured or unreachable")
			}
			res, err := svc.Archive.Search(ctx, signalsQuery)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

func init() {
	f := signalsCmd.Flags()
	f.StringVarP(&signalsQuery.Keywords, "keywords", "k", "", "full text keywords")
	f.StringVar(&signalsQuery.TransitionID, "transition", "", "only signals collected for this transition")
	f.StringVar(&signalsQuery.Category, "category", "", "insight category filter")
	f.StringVar(&signalsQuery.Source, "source", "", "source filter, e.g. reddit")
	f.IntVar(&signalsQuery.Size, "size", 20, "page size")
	f.IntVar(&signalsQuery.From, "from", 0, "page offset")

	rootCmd.AddCommand(signalsCmd)
}
