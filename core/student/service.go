package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("student")
	ErrInvalidCredentials = user.ErrInvalidCredentials
	ErrAccountDeactivated = user.ErrAccountDeactivated
)

type (
	Repository interface {
		QueryStudents(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Student, error)
		CountStudents(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		// GetStudent returns the first Student matching filter or ErrNotFound.
		GetStudent(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Student, error)
		CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudents(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo   Repository
		usrSvc user.Service
	}
)

func NewService(repo Repository, usrSvc user.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// Create creates the User account (student role) and the Student record.
// The account is removed if the record cannot be created.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	usr, err := svc.usrSvc.Create(ctx, ns.NewUser())
	if err != nil {
		return Student{}, errors.Wrap(err, "creating user")
	}

	now := time.Now().UTC()
	enrolledAt := ns.EnrolledAt
	if enrolledAt.IsZero() {
		enrolledAt = now
	}
	s, err := svc.repo.CreateStudent(ctx, Student{
		ID:            uuid.New().String(),
		UserID:        usr.ID,
		Name:          ns.Name,
		StudentNumber: ns.StudentNumber,
		ClassName:     ns.ClassName,
		Phone:         ns.Phone,
		Address:       ns.Address,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		EnrolledAt:    enrolledAt.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if _, dErr := svc.usrSvc.Delete(ctx, usr.ID); dErr != nil {
			return Student{}, errors.Wrapf(err, "creating student (user %s left behind: %v)", usr.ID, dErr)
		}
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

// Login checks a username (or email) & password pair against the student records.
// Unknown users, wrong passwords and non-student accounts all fail with ErrInvalidCredentials.
func (svc *Service) Login(ctx context.Context, uname, pwd string) (Profile, error) {
	usr, err := svc.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Profile{}, ErrInvalidCredentials
	}
	if !usr.IsStudent() {
		return Profile{}, ErrInvalidCredentials
	}

	s, err := svc.GetByUserID(ctx, usr.ID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, err
	}
	if !usr.IsActive {
		return Profile{}, ErrAccountDeactivated
	}

	usr, err = svc.usrSvc.SetLastLogin(ctx, usr)
	if err != nil {
		return Profile{}, errors.Wrap(err, "setting lastLogin")
	}
	return Profile{User: usr, Student: s}, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.Filter{"id": id})
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.Filter{"user_id": userID})
}

func (svc *Service) GetByName(ctx context.Context, name string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.Filter{"name": core.CleanString(name)})
}

func (svc *Service) GetProfile(ctx context.Context, id string) (Profile, error) {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	usr, err := svc.usrSvc.GetByID(ctx, s.UserID)
	if err != nil {
		return Profile{}, errors.Wrap(err, "finding student user")
	}
	return Profile{User: usr, Student: s}, nil
}

func (svc *Service) Query(ctx context.Context, q core.Query) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, q.Only(Columns...))
}

func (svc *Service) Count(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountStudents(ctx, core.Query{Filter: filter}.Only(Columns...).Filter)
}

func (svc *Service) Update(ctx context.Context, s Student, us UpdateStudent) (Student, error) {
	s = us.apply(s)
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

// Delete removes the Students and their User accounts.
func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	students, err := svc.repo.QueryStudents(ctx, core.Query{Filter: core.Filter{"id": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "querying students")
	}
	cnt, err := svc.repo.DeleteStudents(ctx, core.Filter{"id": ids})
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}

	userIDs := make([]string, 0, len(students))
	for _, s := range students {
		userIDs = append(userIDs, s.UserID)
	}
	if len(userIDs) > 0 {
		if _, err = svc.usrSvc.Delete(ctx, userIDs...); err != nil {
			return cnt, errors.Wrap(err, "deleting student users")
		}
	}
	return cnt, nil
}
