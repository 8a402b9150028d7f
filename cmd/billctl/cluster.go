package main

import (
	"fmt"

	"peoples-bill-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Run clustering over the submissions",
}

var clusterRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Recluster every eligible submission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		res, err := p.Clustering.RunFull(cmd.Context())
		if res != nil {
			printRun(res)
		}
		return err
	},
}

var clusterIncrementalCmd = &cobra.Command{
	Use:   "incremental",
	Short: "Attach unclustered submissions to existing clusters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		res, err := p.Clustering.RunIncremental(cmd.Context())
		if res != nil {
			printRun(res)
		}
		return err
	},
}

func init() {
	clusterCmd.AddCommand(clusterRunCmd, clusterIncrementalCmd)
}

func printRun(res *dto.ClusteringRunResponse) {
	status := color.GreenString(res.Status)
	if res.Error != nil {
		status = color.RedString("%s: %s", res.Status, *res.Error)
	}
	color.Cyan("Run %s (%s, %s)", res.RunId, res.Mode, res.ModelVersion)
	fmt.Printf("  status:                %s\n", status)
	fmt.Printf("  submissions processed: %d\n", res.SubmissionsProcessed)
	fmt.Printf("  clusters created:      %d\n", res.ClustersCreated)
	fmt.Printf("  clusters updated:      %d\n", res.ClustersUpdated)
	fmt.Printf("  clusters retired:      %d\n", res.ClustersRetired)
	fmt.Printf("  unclustered:           %d\n", res.Unclustered)
	if res.EmbeddingFailures > 0 {
		color.Yellow("  embedding failures:    %d", res.EmbeddingFailures)
	}
}
