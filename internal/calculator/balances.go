package calculator

import (
	"sort"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// ReceiptForBalance is the minimal information needed for balance calculations.
// The payer is the receipt creator: they paid the venue and everyone else owes
// them their settlement total.
type ReceiptForBalance struct {
	PayerID    string
	Settlement models.Settlement

	// MemberKeys maps participant ID to a stable key for the person across
	// receipts (user ID for participants, participant ID for pending ones).
	MemberKeys map[string]string
}

// MemberBalance is the balance of one person across receipts.
type MemberBalance struct {
	MemberID   string
	NetBalance money.Money // Positive = is owed money, negative = owes money
	TotalPaid  money.Money
	TotalOwed  money.Money
}

// DebtEdge is a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount money.Money
}

// CalculateBalances aggregates who paid and who owes across receipts and
// returns member balances plus a simplified debt list.
//
// Algorithm:
//   - For each receipt: payer contributed +total, each member owes their total
//   - net_balance = total_paid - total_owed
//   - Debts: greedy matching of largest debtor with largest creditor
//
// Output is sorted by member ID (balances) and by debtor then creditor (debts).
func CalculateBalances(receipts []ReceiptForBalance) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	get := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{MemberID: id}
			balances[id] = b
		}
		return b
	}

	for _, r := range receipts {
		if r.PayerID == "" {
			continue
		}
		get(r.PayerID).TotalPaid += r.Settlement.Total

		for _, p := range r.Settlement.People {
			key := p.ParticipantID
			if k, ok := r.MemberKeys[p.ParticipantID]; ok && k != "" {
				key = k
			}
			get(key).TotalOwed += p.Total
		}
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.NetBalance = b.TotalPaid.Sub(b.TotalOwed)
		memberBalances = append(memberBalances, *b)
	}
	sort.Slice(memberBalances, func(i, j int) bool {
		return memberBalances[i].MemberID < memberBalances[j].MemberID
	})

	var creditors, debtors []MemberBalance
	for _, b := range memberBalances {
		switch {
		case b.NetBalance > 0:
			creditors = append(creditors, b)
		case b.NetBalance < 0:
			b.NetBalance = b.NetBalance.Neg()
			debtors = append(debtors, b)
		}
	}
	byAmount := func(s []MemberBalance) {
		sort.SliceStable(s, func(i, j int) bool {
			if s[i].NetBalance != s[j].NetBalance {
				return s[i].NetBalance > s[j].NetBalance
			}
			return s[i].MemberID < s[j].MemberID
		})
	}
	byAmount(creditors)
	byAmount(debtors)

	// Greedy: settle the largest debt against the largest credit.
	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].NetBalance
		if creditors[j].NetBalance < amount {
			amount = creditors[j].NetBalance
		}
		if amount > 0 {
			edges = append(edges, DebtEdge{From: debtors[i].MemberID, To: creditors[j].MemberID, Amount: amount})
		}
		debtors[i].NetBalance -= amount
		creditors[j].NetBalance -= amount
		if debtors[i].NetBalance == 0 {
			i++
		}
		if creditors[j].NetBalance == 0 {
			j++
		}
	}

	return memberBalances, edges
}
