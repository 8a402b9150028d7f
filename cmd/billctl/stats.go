package main

import (
	"fmt"

	"peoples-bill-be/pkg/region"
	"peoples-bill-be/pkg/stats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print platform statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		s, err := p.Stats.GetPlatformStats(cmd.Context(), 0)
		if err != nil {
			return err
		}
		printStats(s)
		return nil
	},
}

func printStats(s *stats.Platform) {
	color.Cyan("Platform statistics (%s)", s.LastUpdated.Format("2006-01-02 15:04 MST"))
	fmt.Printf("  submissions:         %d (%d approved)\n", s.TotalSubmissions, s.ApprovedSubmissions)
	fmt.Printf("  regions represented: %d of %d\n", s.RegionsRepresented, len(region.All()))
	fmt.Printf("  clusters formed:     %d\n", s.ClustersFormed)
	fmt.Printf("  clauses drafted:     %d\n", s.ClausesDrafted)
	fmt.Printf("  average approval:    %.1f%%\n", s.AverageApprovalRate)
	fmt.Printf("  participation:       %.3f per 100k\n", s.Participation.Overall)

	color.Yellow("By region")
	for _, r := range region.Names() {
		fmt.Printf("  %-15s %d\n", r, s.SubmissionsByRegion[r])
	}
	if len(s.TopThemes) > 0 {
		color.Yellow("Top themes")
		for _, t := range s.TopThemes {
			fmt.Printf("  %-30s %d submissions\n", t.Theme, t.Submissions)
		}
	}
}
