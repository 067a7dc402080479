package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/storage/database"
)

type billingRepository struct {
	repo
	payments Table
}

var _ billing.Repository = (*billingRepository)(nil)

func NewBillingRepository(exec core.DBExecutor) *billingRepository {
	return &billingRepository{
		repo:     repo{exec: exec},
		payments: Table{Name: database.TablePayments, NotFound: billing.ErrNotFound},
	}
}

func (r billingRepository) QueryPayments(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]billing.Payment, error) {
	payments := make([]billing.Payment, 0)
	err := r.payments.Select(ctx, r.getExec(exec), q, &payments)
	return payments, err
}

func (r billingRepository) CountPayments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.payments.Count(ctx, r.getExec(exec), filter)
}

func (r billingRepository) GetPayment(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (billing.Payment, error) {
	var p billing.Payment
	err := r.payments.Get(ctx, r.getExec(exec), filter, &p)
	return p, err
}

func (r billingRepository) CreatePayment(ctx context.Context, p billing.Payment, exec ...core.DBExecutor) (billing.Payment, error) {
	var created billing.Payment
	err := r.payments.Insert(ctx, r.getExec(exec), p, &created)
	return created, err
}

// TransitionPayment saves p only while the stored payment is still in status `from`.
func (r billingRepository) TransitionPayment(ctx context.Context, p billing.Payment, from string, exec ...core.DBExecutor) (billing.Payment, error) {
	var updated billing.Payment
	err := r.payments.UpdateWhere(ctx, r.getExec(exec), p, core.Filter{"status": from}, &updated)
	return updated, err
}

func (r billingRepository) DeletePayments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.payments.Delete(ctx, r.getExec(exec), filter)
}
