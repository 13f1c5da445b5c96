package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readiness-workers/internal/app"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Generate or read readiness scores",
}

var scoreGenerateCmd = &cobra.Command{
	Use:   "generate <transition-id>",
	Short: "Compute, persist and print a fresh readiness score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, app.Options{}, func(ctx context.Context, svc *app.App) error {
			score, err := svc.Engine.GenerateScore(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(score)
		})
	},
}

var scoreGetCmd = &cobra.Command{
	Use:   "get <transition-id>",
	Short: "Print the stored readiness score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, app.Options{}, func(ctx context.Context, svc *app.App) error {
			score, err := svc.Engine.GetScore(ctx, args[0])
			if err != nil {
				return err
			}
			if score == nil {
				return fmt.Errorf("no readiness score stored for transition %s", args[0])
			}
			return printJSON(score)
		})
	},
}

func init() {
	scoreCmd.AddCommand(scoreGenerateCmd, scoreGetCmd)
	rootCmd.AddCommand(scoreCmd)
}
