package main

import (
	"fmt"

	"peoples-bill-be/internal/bootstrap"
	"peoples-bill-be/internal/config"
	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/repository/memory"
	"peoples-bill-be/internal/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var demoSubmissions = []struct {
	region string
	text   string
}{
	{"Greater Accra", "Public officers must declare their assets and property every year."},
	{"Ashanti", "Every public officer should declare assets and property publicly."},
	{"Northern", "Asset declaration by public officers must cover all property and bank accounts."},
	{"Volta", "Officials who cannot explain their wealth must prove it was lawfully acquired."},
	{"Central", "The burden of proof should be on officials with unexplained wealth."},
	{"Eastern", "Severe penalties and prison terms for corruption convictions."},
	{"Western", "Corruption must attract severe penalties including prison terms."},
	{"Upper East", "Whistleblowers who report corruption must be protected from retaliation."},
	{"Bono", "Protect whistleblowers and reward those who expose corruption."},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the whole pipeline on sample submissions in memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()
		cfg.Ai.EmbeddingProvider = "hashing"
		cfg.Ai.DrafterMode = "template"

		log := cliLogger()
		uowFactory := memory.NewRepositoryFactory(memory.NewStore())
		p, err := bootstrap.NewPipeline(ctx, cfg, uowFactory, bootstrap.PipelineDeps{}, log)
		if err != nil {
			return err
		}

		queue := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
		defer queue.Close()
		intake := service.NewSubmissionService(uowFactory, queue, "submissions.embed", p.Events, p.Metrics, log)
		for _, s := range demoSubmissions {
			if _, err := intake.Submit(ctx, &dto.CreateSubmissionRequest{Content: s.text, Region: s.region}); err != nil {
				return fmt.Errorf("submit %q: %w", s.text, err)
			}
		}
		color.Cyan("Submitted %d sample submissions", len(demoSubmissions))

		run, err := p.Clustering.RunFull(ctx)
		if run != nil {
			printRun(run)
		}
		if err != nil {
			return err
		}

		clusters, err := p.Clusters.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range clusters {
			res, err := p.Clauses.Generate(ctx, c.Id)
			if err != nil {
				return err
			}
			for i := 0; i < c.MemberCount; i++ {
				if _, err := p.Votes.Cast(ctx, &dto.CastVoteRequest{ClauseId: res.Clause.Id, Vote: "approve"}); err != nil {
					return err
				}
			}
		}

		bill, err := p.Clauses.FullBill(ctx)
		if err != nil {
			return err
		}
		color.Green("\n%s (v%s)", bill.Title, bill.Version)
		fmt.Printf("%s\n\n%s", bill.Preamble, bill.FullText)

		s, err := p.Stats.GetPlatformStats(ctx, 0)
		if err != nil {
			return err
		}
		printStats(s)
		return nil
	},
}
