package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/behonest/leadscore-cli/internal/model"
	"github.com/behonest/leadscore-cli/internal/money"
)

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, enrich and classify all leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.CreateRun(ctx)
		if err != nil {
			return eris.Wrap(err, "create run")
		}

		p := initPipeline()
		leads, err := p.Run(ctx, func(msg string) {
			zap.L().Info("pipeline: " + msg)
		})
		if err != nil {
			if cerr := st.CompleteRun(ctx, run.ID, model.RunStatusFailed, 0, 0, err.Error()); cerr != nil {
				zap.L().Warn("record failed run", zap.Error(cerr))
			}
			return eris.Wrap(err, "pipeline run")
		}

		written, err := st.UpsertLeads(ctx, leads)
		if err != nil {
			if cerr := st.CompleteRun(ctx, run.ID, model.RunStatusFailed, len(leads), written, err.Error()); cerr != nil {
				zap.L().Warn("record failed run", zap.Error(cerr))
			}
			return eris.Wrap(err, "upsert leads")
		}

		if err := st.CompleteRun(ctx, run.ID, model.RunStatusComplete, len(leads), written, ""); err != nil {
			return eris.Wrap(err, "complete run")
		}

		var totalInvestment float64
		for _, l := range leads {
			totalInvestment += l.AvailableInvestment
		}
		zap.L().Info("run complete",
			zap.String("run_id", run.ID),
			zap.Int("leads", len(leads)),
			zap.Int("written", written),
			zap.String("investment_mined", "R$ "+money.FormatBR(totalInvestment)),
		)
		logTierCounts(leads)

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(leads)
		}
		return nil
	},
}

// logTierCounts logs lead counts per tier in descending tier order.
func logTierCounts(leads []model.EnrichedLead) {
	counts := make(map[model.Tier]int)
	for _, l := range leads {
		counts[l.Classification]++
	}
	fields := make([]zap.Field, 0, len(counts))
	for _, tier := range model.AllTiers() {
		if n := counts[tier]; n > 0 {
			fields = append(fields, zap.Int(string(tier), n))
		}
	}
	zap.L().Info("classification summary", fields...)
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print classified leads as JSON to stdout")
	rootCmd.AddCommand(runCmd)
}
