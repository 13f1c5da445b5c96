package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"readiness-workers/internal/app"
	"readiness-workers/internal/common/cache"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var sweepYes bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the provider response cache",
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired cache entries now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, app.Options{}, func(ctx context.Context, svc *app.App) error {
			if !sweepYes {
				prompt := promptui.Select{
					Label: fmt.Sprintf("Sweep expired entries from the %s cache?", svc.Cache.Backend()),
					Items: []string{PromptYes, PromptNo},
				}
				_, answer, err := prompt.Run()
				if err != nil {
					return err
				}
				if answer != PromptYes {
					fmt.Println("Nothing swept.")
					return nil
				}
			}

			sweeper, err := cache.NewSweeper(svc.Cache, svc.Config.Cache.SweepSchedule, svc.Logger)
			if err != nil {
				return err
			}
			removed, err := sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d expired entries from the %s cache.\n", removed, svc.Cache.Backend())
			return nil
		})
	},
}

func init() {
	cacheSweepCmd.Flags().BoolVarP(&sweepYes, "yes", "y", false, "skip the confirmation prompt")
	cacheCmd.AddCommand(cacheSweepCmd)
	rootCmd.AddCommand(cacheCmd)
}
