package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/receiptsplit/internal/engine"
	"github.com/mmynk/receiptsplit/internal/models"
)

func newComputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute",
		Short: "Print the per-participant settlement of a receipt",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := loadReceipt(cmd)
			if err != nil {
				return err
			}
			s, err := engine.Settle(r)
			if err != nil {
				return err
			}
			return printSettlement(cmd.OutOrStdout(), r, s)
		},
	}
}

func printSettlement(out io.Writer, r *models.Receipt, s models.Settlement) error {
	fmt.Fprintf(out, "%s (version %d)\n\n", r.Title, s.Version)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "participant\titems\tservice\tcover\ttotal\t")
	for _, p := range s.People {
		name := p.DisplayName
		if p.Pending {
			name += " (pending)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", name, p.Subtotal, p.ServiceCharge, p.Cover, p.Total)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", "receipt", s.Subtotal, s.ServiceCharge, s.Cover, s.Total)
	return w.Flush()
}
