package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"readiness-workers/internal/app"
	"readiness-workers/internal/providers"
)

var (
	jobsQuery    string
	jobsLocation string
	jobsRemote   bool
	jobsLimit    int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Query the job listings provider",
}

var jobsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search normalized job listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q := providers.SearchQuery{
			Query:   jobsQuery,
			Limit:   jobsLimit,
			Filters: providers.Filters{Location: jobsLocation},
		}
		if cmd.Flags().Changed("remote") {
			q.Filters.Remote = &jobsRemote
		}
		return withApp(cmd, app.Options{}, func(ctx context.Context, svc *app.App) error {
			return printJSON(svc.Jobs.SearchJobs(ctx, q))
		})
	},
}

var jobsDetailsCmd = &cobra.Command{
	Use:   "details <job-id>",
	Short: "Print one job listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, app.Options{}, func(ctx context.Context, svc *app.App) error {
			job, err := svc.Jobs.GetJobDetails(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(job)
		})
	},
}

func init() {
	jobsSearchCmd.Flags().StringVarP(&jobsQuery, "query", "q", "", "search terms, usually the target role")
	jobsSearchCmd.Flags().StringVar(&jobsLocation, "location", "", "location filter")
	jobsSearchCmd.Flags().BoolVar(&jobsRemote, "remote", false, "only remote listings")
	jobsSearchCmd.Flags().IntVar(&jobsLimit, "limit", providers.DefaultLimit, "maximum listings to return")
	jobsSearchCmd.MarkFlagRequired("query")

	jobsCmd.AddCommand(jobsSearchCmd, jobsDetailsCmd)
	rootCmd.AddCommand(jobsCmd)
}
