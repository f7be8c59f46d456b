package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

var (
	reviewRating  int
	reviewComment string

	metricName        string
	metricValue       string
	metricUnit        string
	metricDescription string
	metricSource      string
	metricTrend       string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage citizen reviews",
}

var reviewAddCmd = &cobra.Command{
	Use:   "add <slug|id>",
	Short: "Add a citizen review",
	Long: `Add a 1 to 5 star review of a representative. Reviews feed the public
sentiment score on the leaderboard.

Example:
  kenyawatch review add ali-omar-mp --rating 4 --comment "Regular town halls" --user Wanjiku`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewAdd,
}

var metricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Manage performance metrics",
}

var metricAddCmd = &cobra.Command{
	Use:   "add <slug|id>",
	Short: "Add a performance metric",
	Long: `Add a performance metric to a representative. Numeric values are stored as
numbers, anything else as text.

Example:
  kenyawatch metric add jane-smith-governor --name "Clinics Opened" --value 14 --unit count --trend up`,
	Args: cobra.ExactArgs(1),
	RunE: runMetricAdd,
}

func init() {
	rootCmd.AddCommand(reviewCmd, metricCmd)
	reviewCmd.AddCommand(reviewAddCmd)
	metricCmd.AddCommand(metricAddCmd)

	reviewAddCmd.Flags().IntVarP(&reviewRating, "rating", "r", 0, "Star rating from 1 to 5")
	reviewAddCmd.Flags().StringVarP(&reviewComment, "comment", "m", "", "Review comment")

	metricAddCmd.Flags().StringVar(&metricName, "name", "", "Metric name")
	metricAddCmd.Flags().StringVar(&metricValue, "value", "", "Metric value")
	metricAddCmd.Flags().StringVar(&metricUnit, "unit", "", "Unit, e.g. % or count")
	metricAddCmd.Flags().StringVar(&metricDescription, "description", "", "Description")
	metricAddCmd.Flags().StringVar(&metricSource, "source", "", "Source of the figure")
	metricAddCmd.Flags().StringVar(&metricTrend, "trend", "", "Trend: up, down or stable")
}

func runReviewAdd(cmd *cobra.Command, args []string) error {
	return withFlows(cmd, func(ctx context.Context, a *app) error {
		rep, err := a.representative(ctx, args[0])
		if err != nil {
			return err
		}
		id, err := a.flows.AddReview(ctx, civic.Review{
			RepresentativeID: rep.ID,
			Rating:           reviewRating,
			Comment:          reviewComment,
			UserName:         a.cfg.User.Name,
		})
		if err != nil {
			return validationMessage(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Review %s added for %s\n", id, rep.Name)
		return nil
	})
}

func runMetricAdd(cmd *cobra.Command, args []string) error {
	return withFlows(cmd, func(ctx context.Context, a *app) error {
		rep, err := a.representative(ctx, args[0])
		if err != nil {
			return err
		}
		id, err := a.flows.AddPerformanceMetric(ctx, civic.PerformanceMetric{
			RepresentativeID: rep.ID,
			Name:             metricName,
			Value:            civic.ParseMetricValue(metricValue),
			Unit:             metricUnit,
			Description:      metricDescription,
			Source:           metricSource,
			Trend:            civic.Trend(metricTrend),
		})
		if err != nil {
			return validationMessage(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Metric %s added for %s\n", id, rep.Name)
		return nil
	})
}
