// Package envelope consumes the external finance backend's envelope
// records and computes the budgeting arithmetic the rest of the app needs.
// Envelopes are owned by the relational backend, not the replicated store;
// this package only reads them.
package envelope

// Visibility controls whether an envelope's numbers render without an
// explicit reveal. This is a display gate, not a security boundary; the
// record is always fetched.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityHidden  Visibility = "hidden"
)

// Envelope is one budgeting envelope as served by the finance backend.
type Envelope struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	BudgetLimit    float64    `json:"budget_limit"`
	CurrentBalance float64    `json:"current_balance"`
	Visibility     Visibility `json:"visibility"`
}

// Available returns the balance left to spend in the current period.
func Available(budgetLimit, spent float64) float64 {
	return budgetLimit - spent
}

// SafeToSpend is what the UI labels the remaining allowance; it is the
// same arithmetic as Available.
func SafeToSpend(budgetLimit, spent float64) float64 {
	return Available(budgetLimit, spent)
}

// Rollover carries the current balance into a new period. An overspent
// (negative) balance reduces the next period's effective allocation.
func Rollover(currentBalance, allocation float64) float64 {
	return currentBalance + allocation
}

// Visible reports whether the envelope's numbers may render. Non-public
// envelopes require the client-side reveal flag.
func Visible(e Envelope, revealed bool) bool {
	return e.Visibility == VisibilityPublic || revealed
}
