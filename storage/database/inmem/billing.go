package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/billing"
)

type billingRepository struct {
	payments *table[billing.Payment]
}

var _ billing.Repository = (*billingRepository)(nil)

func NewBillingRepository(db *DB) *billingRepository {
	return &billingRepository{payments: db.payments}
}

func (r *billingRepository) QueryPayments(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]billing.Payment, error) {
	return r.payments.Select(q), nil
}

func (r *billingRepository) CountPayments(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.payments.Count(filter), nil
}

func (r *billingRepository) GetPayment(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (billing.Payment, error) {
	return r.payments.Get(filter)
}

func (r *billingRepository) CreatePayment(_ context.Context, p billing.Payment, _ ...core.DBExecutor) (billing.Payment, error) {
	return r.payments.Insert(p)
}

// TransitionPayment saves p only while the stored payment is still in status `from`.
func (r *billingRepository) TransitionPayment(_ context.Context, p billing.Payment, from string, _ ...core.DBExecutor) (billing.Payment, error) {
	return r.payments.UpdateWhere(p, core.Filter{"status": from})
}

func (r *billingRepository) DeletePayments(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.payments.Delete(filter), nil
}
