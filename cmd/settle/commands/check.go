package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/receiptsplit/internal/engine"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
	"github.com/mmynk/receiptsplit/pkg/api"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that a receipt's settlement adds up to its total",
		Long: `check recomputes the settlement and fails when the per-participant
totals do not add up to the receipt total, or when the totals recorded in the
file disagree with the recomputed ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, in, err := loadReceipt(cmd)
			if err != nil {
				return err
			}
			s, err := engine.Settle(r)
			if err != nil {
				return err
			}
			problems := verify(in, s)
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, "mismatch:", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d settlement mismatches", len(problems))
			}
			fmt.Fprintf(out, "ok: %d people, total %s\n", len(s.People), s.Total)
			return nil
		},
	}
}

// verify lists every way s fails to conserve money, plus disagreements with
// the recorded totals in, if any.
func verify(in *api.Receipt, s models.Settlement) []string {
	var problems []string

	if want := s.Subtotal.Add(s.ServiceCharge).Add(s.Cover); s.Total != want {
		problems = append(problems, fmt.Sprintf("receipt total %s != subtotal + service + cover %s", s.Total, want))
	}

	var people money.Money
	for _, p := range s.People {
		people = people.Add(p.Total)
		if want := p.Subtotal.Add(p.ServiceCharge).Add(p.Cover); p.Total != want {
			problems = append(problems, fmt.Sprintf("%s: total %s != parts %s", p.ParticipantID, p.Total, want))
		}
		if p.Adjustment > 1 || p.Adjustment < -1 {
			problems = append(problems, fmt.Sprintf("%s: adjustment %s exceeds one cent", p.ParticipantID, p.Adjustment))
		}
	}
	if len(s.People) > 0 && people != s.Total {
		problems = append(problems, fmt.Sprintf("participants owe %s but receipt total is %s", people, s.Total))
	}

	if in != nil {
		if in.Total != "" && in.Total != s.Total.String() {
			problems = append(problems, fmt.Sprintf("recorded total %s, computed %s", in.Total, s.Total))
		}
		if in.Subtotal != "" && in.Subtotal != s.Subtotal.String() {
			problems = append(problems, fmt.Sprintf("recorded subtotal %s, computed %s", in.Subtotal, s.Subtotal))
		}
	}
	return problems
}
