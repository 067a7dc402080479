package billing

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

const DefaultCurrency = "USD"

// Payment is a fee billed to a student. Amount is in minor units (cents).
type Payment struct {
	ID          string     `json:"id" db:"id"`
	StudentID   string     `json:"student_id" db:"student_id"`
	Amount      int64      `json:"amount" db:"amount"`
	Currency    string     `json:"currency" db:"currency"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	DueAt       time.Time  `json:"due_at" db:"due_at"`
	PaidAt      *time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

var Columns = []string{"id", "student_id", "amount", "currency", "description", "status", "due_at", "paid_at", "created_at", "updated_at"}

// Balance sums the payments of a student in one currency; cancelled payments are not billed.
type Balance struct {
	Currency    string `json:"currency"`
	Billed      int64  `json:"billed"`
	Paid        int64  `json:"paid"`
	Outstanding int64  `json:"outstanding"`
	Overdue     int64  `json:"overdue"` // outstanding & past due
}

// ComputeBalances returns one Balance per currency, ordered by currency. Amounts in different currencies are never added up.
func ComputeBalances(payments []Payment, now time.Time) []Balance {
	byCurrency := make(map[string]*Balance)
	for _, p := range payments {
		if p.Status != StatusPaid && p.Status != StatusPending {
			continue
		}
		bal, ok := byCurrency[p.Currency]
		if !ok {
			bal = &Balance{Currency: p.Currency}
			byCurrency[p.Currency] = bal
		}
		bal.Billed += p.Amount
		if p.Status == StatusPaid {
			bal.Paid += p.Amount
			continue
		}
		bal.Outstanding += p.Amount
		if p.DueAt.Before(now) {
			bal.Overdue += p.Amount
		}
	}

	balances := make([]Balance, 0, len(byCurrency))
	for _, bal := range byCurrency {
		balances = append(balances, *bal)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Currency < balances[j].Currency })
	return balances
}

type NewPayment struct {
	StudentID   string    `json:"student_id" validate:"required,uuid"`
	Amount      int64     `json:"amount" validate:"gt=0"`
	Currency    string    `json:"currency" validate:"omitempty,len=3,alpha"`
	Description string    `json:"description" validate:"required,max=500"`
	DueAt       time.Time `json:"due_at"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Description = core.CleanString(np.Description)
	np.Currency = core.CleanString(np.Currency)
	return validate.Struct(np)
}
