package main

import (
	"fmt"

	"peoples-bill-be/internal/dto"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var clauseCmd = &cobra.Command{
	Use:   "clause",
	Short: "Draft and revise bill clauses",
}

var clauseDraftCmd = &cobra.Command{
	Use:   "draft <cluster-id>",
	Short: "Draft the clause for a cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clusterID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid cluster id %q: %w", args[0], err)
		}
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		res, err := p.Clauses.Generate(cmd.Context(), clusterID)
		if err != nil {
			return err
		}
		printDraft(res)
		return nil
	},
}

var clauseRegenerateCmd = &cobra.Command{
	Use:   "regenerate <clause-id>",
	Short: "Redraft a clause, keeping its section and votes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clauseID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid clause id %q: %w", args[0], err)
		}
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		res, err := p.Clauses.Regenerate(cmd.Context(), clauseID)
		if err != nil {
			return err
		}
		printDraft(res)
		return nil
	},
}

func init() {
	clauseCmd.AddCommand(clauseDraftCmd, clauseRegenerateCmd)
}

func printDraft(res *dto.DraftClauseResponse) {
	c := res.Clause
	if res.Created {
		color.Green("Drafted SECTION %d: %s", c.SectionNumber, c.Title)
	} else {
		color.Cyan("SECTION %d: %s (revision %d)", c.SectionNumber, c.Title, c.Revision)
	}
	fmt.Printf("%s\n\nRationale: %s\n", c.Content, c.Rationale)
	fmt.Printf("Method: %s, submissions: %d, approval: %.1f%%\n", c.GenerationMethod, c.SubmissionCount, c.ApprovalRate)
	if res.FallbackReason != "" {
		color.Yellow("Template fallback: %s", res.FallbackReason)
	}
	if res.Validation != nil && !res.Validation.Valid {
		for _, issue := range res.Validation.Issues {
			color.Yellow("  issue: %s", issue)
		}
	}
}
