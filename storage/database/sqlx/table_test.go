package sqlxrepos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/user"
)

func TestTable_selectBuilder(t *testing.T) {
	tbl := Table{Name: "courses"}

	tests := []struct {
		name     string
		query    core.Query
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "everything",
			query:   core.Query{},
			wantSQL: "SELECT * FROM courses",
		},
		{
			name: "filter, ordering & pagination",
			query: core.Query{
				Filter:   core.Filter{"name": "Maths", "id": []string{"a", "b"}},
				Ordering: core.ParseOrdering("name,-created_at"),
				Limit:    10,
				Offset:   20,
			},
			wantSQL:  "SELECT * FROM courses WHERE id IN ($1,$2) AND name = $3 ORDER BY name ASC, created_at DESC LIMIT 10 OFFSET 20",
			wantArgs: []interface{}{"a", "b", "Maths"},
		},
		{
			name:    "null",
			query:   core.Query{Filter: core.Filter{"teacher_id": nil}},
			wantSQL: "SELECT * FROM courses WHERE teacher_id IS NULL",
		},
		{
			name:    "empty IN matches nothing",
			query:   core.Query{Filter: core.Filter{"id": []string{}}},
			wantSQL: "SELECT * FROM courses WHERE (1=0)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, args, err := tbl.selectBuilder(tc.query).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			if tc.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tc.wantArgs, args)
			}
		})
	}
}

func TestTable_insertAndUpdateBuilders(t *testing.T) {
	tbl := Table{Name: "enrollments"}
	at := time.Date(2021, 2, 1, 8, 0, 0, 0, time.UTC)
	e := course.Enrollment{ID: "e1", CourseID: "c1", StudentID: "s1", EnrolledAt: at}

	sql, args, err := tbl.insertBuilder(e).Suffix(upsertSuffix([]string{"course_id", "student_id"}, nil)).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO enrollments (course_id,enrolled_at,id,student_id) VALUES ($1,$2,$3,$4) "+
			"ON CONFLICT (course_id, student_id) DO UPDATE SET course_id = EXCLUDED.course_id RETURNING *",
		sql)
	assert.Equal(t, []interface{}{"c1", at, "e1", "s1"}, args)

	b, err := tbl.updateBuilder(e, nil)
	require.NoError(t, err)
	sql, args, err = b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE enrollments SET course_id = $1, enrolled_at = $2, student_id = $3 WHERE id = $4", sql)
	assert.Equal(t, []interface{}{"c1", at, "s1", "e1"}, args)

	b, err = tbl.updateBuilder(e, core.Filter{"student_id": "s0"})
	require.NoError(t, err)
	sql, args, err = b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE enrollments SET course_id = $1, enrolled_at = $2, student_id = $3 WHERE id = $4 AND student_id = $5", sql)
	assert.Equal(t, []interface{}{"c1", at, "s1", "e1", "s0"}, args)

	_, err = tbl.updateBuilder(struct{ Name string }{"x"}, nil)
	assert.Error(t, err)
}

func TestUpsertSuffix(t *testing.T) {
	assert.Equal(t,
		"ON CONFLICT (student_id, course_id, date) DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note RETURNING *",
		upsertSuffix([]string{"student_id", "course_id", "date"}, []string{"status", "note"}))
}

func TestQueryUsersBuilder(t *testing.T) {
	active := true
	from := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := &user.QueryFilter{
		Search:      "jo",
		Roles:       []string{user.RoleAdmin, user.RoleTeacher},
		IsActive:    &active,
		CreatedFrom: from,
	}

	sql, args, err := queryUsersBuilder(filter, []core.DBOrdering{{Field: "name", Ascending: true}}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM users WHERE (name ILIKE $1 OR username ILIKE $2 OR email ILIKE $3) "+
			"AND (EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE $4) "+
			"OR EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE $5)) "+
			"AND is_active = $6 AND created_at >= $7 ORDER BY name ASC",
		sql)
	assert.Equal(t, []interface{}{"%jo%", "%jo%", "%jo%", "admin:%", "teacher:%", true, from}, args)

	sql, _, err = queryUsersBuilder(nil, []core.DBOrdering{
		{Field: "(SELECT password_hash FROM users LIMIT 1)", Ascending: true},
		{Field: "password_hash", Ascending: true},
		{Field: "created_at"},
	}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users ORDER BY created_at DESC", sql)

	sql, args, err = queryUsersBuilder(nil, nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", sql)
	assert.Empty(t, args)
}
