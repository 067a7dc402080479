package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/user"
	"github.com/trezcool/portal/storage/database"
)

// userRow is the users table row: username & email are nullable so that their uniqueness ignores blanks.
type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     sql.NullString `db:"username"`
	Email        sql.NullString `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func toUserRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     sql.NullString{String: usr.Username, Valid: usr.Username != ""},
		Email:        sql.NullString{String: usr.Email, Valid: usr.Email != ""},
		IsActive:     usr.IsActive,
		Roles:        roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	repo
	table Table
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{
		repo:  repo{exec: exec},
		table: Table{Name: database.TableUsers, NotFound: user.ErrNotFound},
	}
}

func excludedIDs(users []user.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func (r userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	check := func(col, val string, errExists error) error {
		if val == "" {
			return nil
		}
		filter := sq.And{sq.Eq{col: val}}
		if len(excludedUsers) > 0 {
			filter = append(filter, sq.NotEq{"id": excludedIDs(excludedUsers)})
		}
		query, args, err := psql.Select("1").From(r.table.Name).Where(filter).Limit(1).ToSql()
		if err != nil {
			return errors.Wrap(err, "building uniqueness check")
		}
		var one int
		err = r.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&one)
		switch {
		case err == sql.ErrNoRows:
			return nil
		case err != nil:
			return errors.Wrap(err, "checking user uniqueness")
		default:
			return errExists
		}
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (r userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	var row userRow
	if err := r.table.Insert(ctx, r.getExec(exec), toUserRow(usr), &row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.user(), nil
}

func queryUsersBuilder(filter *user.QueryFilter, ordering []core.DBOrdering) sq.SelectBuilder {
	b := psql.Select("*").From(database.TableUsers)

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			b = b.Where(sq.Or{sq.ILike{"name": val}, sq.ILike{"username": val}, sq.ILike{"email": val}})
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roles := sq.Or{}
			for _, role := range filter.Roles {
				roles = append(roles, sq.Expr("EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE ?)", role+"%"))
			}
			b = b.Where(roles)
		}
		if filter.IsActive != nil {
			b = b.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			b = b.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			b = b.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}

	// column names cannot be bound as parameters
	for _, ord := range (core.Query{Ordering: ordering}).Only(user.Columns...).Ordering {
		b = b.OrderBy(ord.String())
	}
	return b
}

func (r userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	rows, err := r.table.query(ctx, r.getExec(exec), queryUsersBuilder(filter, ordering))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := make([]user.User, 0)
	for rows.Next() {
		var row userRow
		if err = rows.StructScan(&row); err != nil {
			return nil, errors.Wrap(err, "scanning user")
		}
		users = append(users, row.user())
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (r userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var cond sq.Sqlizer
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		cond = sq.Eq{"id": filter.ID}
	case filter.Username != "":
		cond = sq.Eq{"username": filter.Username}
	case filter.Email != "":
		cond = sq.Eq{"email": filter.Email}
	case filter.UsernameOrEmail != "":
		cond = sq.Or{sq.Eq{"username": filter.UsernameOrEmail}, sq.Eq{"email": filter.UsernameOrEmail}}
	default:
		return user.User{}, user.ErrNotFound
	}

	rows, err := r.table.query(ctx, r.getExec(exec), psql.Select("*").From(r.table.Name).Where(cond).Limit(1))
	if err != nil {
		return user.User{}, err
	}
	var row userRow
	if err = r.table.scanOne(rows, &row); err != nil {
		return user.User{}, err
	}
	return row.user(), nil
}

func (r userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	if err := r.table.Update(ctx, r.getExec(exec), toUserRow(usr), &row); err != nil {
		return user.User{}, err
	}
	return row.user(), nil
}

func (r userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return r.CreateUser(ctx, usr, exec...)
	}
	var row userRow
	update := []string{"name", "username", "email", "is_active", "roles", "password_hash", "updated_at", "last_login"}
	if err := r.table.Upsert(ctx, r.getExec(exec), []string{"id"}, update, toUserRow(usr), &row); err != nil {
		return user.User{}, errors.Wrap(err, "upserting user")
	}
	return row.user(), nil
}

func (r userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.table.Delete(ctx, r.getExec(exec), core.Filter{"id": ids})
}
