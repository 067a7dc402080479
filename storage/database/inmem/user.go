package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/user"
)

type userRepository struct {
	users *table[user.User]
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{users: db.users}
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

func (r *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	if username != "" {
		if _, err := r.users.Find(func(u user.User) bool {
			return u.Username == username && !isExcluded(u, excludedUsers)
		}); err == nil {
			return user.ErrUsernameExists
		}
	}
	if email != "" {
		if _, err := r.users.Find(func(u user.User) bool {
			return u.Email == email && !isExcluded(u, excludedUsers)
		}); err == nil {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	return r.users.Insert(usr)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" &&
		!containsFold(usr.Name, filter.Search) &&
		!containsFold(usr.Username, filter.Search) &&
		!containsFold(usr.Email, filter.Search) {
		return false
	}
	if len(filter.Roles) > 0 {
		found := false
		for _, role := range filter.Roles {
			for _, usrRole := range usr.Roles {
				if strings.HasPrefix(strings.ToLower(usrRole), strings.ToLower(role)) {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (r *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	r.users.RLock()
	users := r.users.filter(func(u user.User) bool { return matchUser(u, filter) })
	r.users.RUnlock()

	sortRows(users, ordering)
	return users, nil
}

func (r *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	var pred func(user.User) bool
	switch {
	case filter.ID != "":
		pred = func(u user.User) bool { return u.ID == filter.ID }
	case filter.Username != "":
		pred = func(u user.User) bool { return u.Username == filter.Username }
	case filter.Email != "":
		pred = func(u user.User) bool { return u.Email == filter.Email }
	case filter.UsernameOrEmail != "":
		pred = func(u user.User) bool { return u.Username == filter.UsernameOrEmail || u.Email == filter.UsernameOrEmail }
	default:
		return user.User{}, user.ErrNotFound
	}
	return r.users.Find(pred)
}

func (r *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	return r.users.Update(usr)
}

func (r *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if _, err := r.users.Get(core.Filter{"id": usr.ID}); err == nil {
		return r.users.Update(usr)
	}
	return r.CreateUser(ctx, usr, exec...)
}

func (r *userRepository) DeleteUsersByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.users.Delete(core.Filter{"id": ids}), nil
}
