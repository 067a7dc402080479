package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeBalances(t *testing.T) {
	now := time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		payments []Payment
		want     []Balance
	}{
		{name: "no payments", want: []Balance{}},
		{
			name: "paid only",
			payments: []Payment{
				{Amount: 10000, Currency: "USD", Status: StatusPaid, DueAt: past},
				{Amount: 2550, Currency: "USD", Status: StatusPaid, DueAt: future},
			},
			want: []Balance{{Currency: "USD", Billed: 12550, Paid: 12550}},
		},
		{
			name: "pending, some overdue",
			payments: []Payment{
				{Amount: 5000, Currency: "USD", Status: StatusPending, DueAt: past},
				{Amount: 7000, Currency: "USD", Status: StatusPending, DueAt: future},
				{Amount: 1000, Currency: "USD", Status: StatusPaid, DueAt: past},
			},
			want: []Balance{{Currency: "USD", Billed: 13000, Paid: 1000, Outstanding: 12000, Overdue: 5000}},
		},
		{
			name: "cancelled is ignored",
			payments: []Payment{
				{Amount: 9999, Currency: "USD", Status: StatusCancelled, DueAt: past},
				{Amount: 100, Currency: "USD", Status: StatusPending, DueAt: now},
			},
			want: []Balance{{Currency: "USD", Billed: 100, Outstanding: 100}},
		},
		{
			name: "one balance per currency",
			payments: []Payment{
				{Amount: 5000, Currency: "USD", Status: StatusPending, DueAt: past},
				{Amount: 20000, Currency: "CDF", Status: StatusPaid, DueAt: past},
				{Amount: 3000, Currency: "USD", Status: StatusPaid, DueAt: past},
				{Amount: 7000, Currency: "CDF", Status: StatusPending, DueAt: future},
			},
			want: []Balance{
				{Currency: "CDF", Billed: 27000, Paid: 20000, Outstanding: 7000},
				{Currency: "USD", Billed: 8000, Paid: 3000, Outstanding: 5000, Overdue: 5000},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeBalances(tc.payments, now))
		})
	}
}
