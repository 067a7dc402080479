package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("payment")
	ErrAlreadyPaid      = errors.New("payment already paid")
	ErrPaymentCancelled = errors.New("payment cancelled")
)

type (
	Repository interface {
		QueryPayments(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Payment, error)
		CountPayments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetPayment(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Payment, error)
		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		// TransitionPayment saves p only while the stored payment is still in status `from`; ErrNotFound otherwise.
		TransitionPayment(ctx context.Context, p Payment, from string, exec ...core.DBExecutor) (Payment, error)
		DeletePayments(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewPayment) (Payment, error) {
	now := time.Now().UTC()
	currency := strings.ToUpper(np.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	dueAt := np.DueAt
	if dueAt.IsZero() {
		dueAt = now
	}
	return svc.repo.CreatePayment(ctx, Payment{
		ID:          uuid.New().String(),
		StudentID:   np.StudentID,
		Amount:      np.Amount,
		Currency:    currency,
		Description: np.Description,
		Status:      StatusPending,
		DueAt:       dueAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPayment(ctx, core.Filter{"id": id})
}

// Find returns the payment of a student with the given description.
func (svc *Service) Find(ctx context.Context, studentID, description string) (Payment, error) {
	return svc.repo.GetPayment(ctx, core.Filter{"student_id": studentID, "description": core.CleanString(description)})
}

func (svc *Service) Query(ctx context.Context, q core.Query) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, q.Only(Columns...))
}

func (svc *Service) Count(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountPayments(ctx, core.Query{Filter: filter}.Only(Columns...).Filter)
}

func statusError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "status", Error: err.Error()})
}

func checkPayable(p Payment) error {
	switch p.Status {
	case StatusPaid:
		return statusError(ErrAlreadyPaid)
	case StatusCancelled:
		return statusError(ErrPaymentCancelled)
	}
	return nil
}

func checkCancellable(p Payment) error {
	if p.Status == StatusPaid {
		return statusError(ErrAlreadyPaid)
	}
	return nil
}

// transition saves p, whose status was `from` when loaded. When another request changed the status
// in between, the stored payment is checked again so that the caller gets the matching error.
func (svc *Service) transition(ctx context.Context, p Payment, from string, check func(Payment) error) (Payment, error) {
	saved, err := svc.repo.TransitionPayment(ctx, p, from)
	if errors.Cause(err) != ErrNotFound {
		return saved, err
	}
	current, err := svc.repo.GetPayment(ctx, core.Filter{"id": p.ID})
	if err != nil {
		return Payment{}, err
	}
	if err = check(current); err != nil {
		return Payment{}, err
	}
	return Payment{}, errors.Errorf("payment %s changed while being saved", p.ID)
}

func (svc *Service) MarkPaid(ctx context.Context, p Payment) (Payment, error) {
	if err := checkPayable(p); err != nil {
		return Payment{}, err
	}
	from := p.Status
	now := time.Now().UTC()
	p.Status = StatusPaid
	p.PaidAt = &now
	p.UpdatedAt = now
	return svc.transition(ctx, p, from, checkPayable)
}

func (svc *Service) Cancel(ctx context.Context, p Payment) (Payment, error) {
	if err := checkCancellable(p); err != nil {
		return Payment{}, err
	}
	from := p.Status
	p.Status = StatusCancelled
	p.UpdatedAt = time.Now().UTC()
	return svc.transition(ctx, p, from, checkCancellable)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeletePayments(ctx, core.Filter{"id": ids})
}

func (svc *Service) BalancesForStudent(ctx context.Context, studentID string, now time.Time) ([]Balance, error) {
	payments, err := svc.repo.QueryPayments(ctx, core.Query{Filter: core.Filter{"student_id": studentID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return ComputeBalances(payments, now), nil
}
