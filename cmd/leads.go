package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/behonest/leadscore-cli/internal/model"
	"github.com/behonest/leadscore-cli/internal/store"
)

var (
	leadsTier  string
	leadsLimit int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List stored leads, highest score first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			Tier:  model.Tier(leadsTier),
			Limit: leadsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list leads")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(leads)
	},
}

func init() {
	leadsCmd.Flags().StringVar(&leadsTier, "tier", "", "filter by tier (MQL+, MQL, LEAD+, LEAD, DESQUALIFICADO)")
	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 100, "maximum leads to list")
	rootCmd.AddCommand(leadsCmd)
}
