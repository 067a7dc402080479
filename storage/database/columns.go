package database

import (
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

// Table names
const (
	TableUsers        = "users"
	TableStudents     = "students"
	TableCourses      = "courses"
	TableEnrollments  = "enrollments"
	TableAssignments  = "assignments"
	TableExams        = "exams"
	TableGrades       = "grades"
	TableAttendance   = "attendance"
	TablePayments     = "payments"
	TableMessages     = "messages"
	TableChatMessages = "chat_messages"
	TableResources    = "resources"
)

var Tables = []string{
	TableUsers, TableStudents, TableCourses, TableEnrollments, TableAssignments, TableExams,
	TableGrades, TableAttendance, TablePayments, TableMessages, TableChatMessages, TableResources,
}

// Mapper maps struct fields to columns with the `db` tag, the same way sqlx scans rows.
var Mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// ColumnMap returns the {column: value} map of a model (struct or pointer to struct).
func ColumnMap(model interface{}) map[string]interface{} {
	v := reflect.Indirect(reflect.ValueOf(model))
	names := Mapper.TypeMap(v.Type()).Names
	cols := make(map[string]interface{}, len(names))
	for col, fi := range names {
		if strings.Contains(col, ".") {
			continue // nested struct fields
		}
		// read-only traversal: Mapper.FieldMap would allocate nil pointers
		cols[col] = reflectx.FieldByIndexesReadOnly(v, fi.Index).Interface()
	}
	return cols
}

// ColumnValue returns the value of a model's column. Pointers are dereferenced, nil pointers give nil.
func ColumnValue(model interface{}, col string) (interface{}, bool) {
	v := reflect.Indirect(reflect.ValueOf(model))
	fi, ok := Mapper.TypeMap(v.Type()).Names[col]
	if !ok {
		return nil, false
	}
	fv := reflectx.FieldByIndexesReadOnly(v, fi.Index)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil, true
		}
		fv = fv.Elem()
	}
	return fv.Interface(), true
}
