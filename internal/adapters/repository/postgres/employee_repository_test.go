package postgres

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hr-employee-model/internal/core/employee"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...any) error
}

func (s stubRow) Scan(dest ...any) error {
	return s.scanFn(dest...)
}

// anyArgs は n 個のプレースホルダすべてに一致する引数列を返します。
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// fillColumns は列名をキーに dest へ値を書き込みます。値の型は dest の要素型と一致させること。
func fillColumns(columns []string, dest []any, values map[string]any) error {
	if len(dest) != len(columns) {
		return errors.New("unexpected dest length")
	}
	for i, col := range columns {
		v, ok := values[col]
		if !ok {
			continue
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestScanEmployee_Success(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	managerID := uuid.New()
	gender := "FEMALE"
	joined := time.Date(2024, 4, 1, 0, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	dob := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 4, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*60*60))

	row := stubRow{scanFn: func(dest ...any) error {
		return fillColumns(employeeColumns, dest, map[string]any{
			"id":                 id,
			"employee_id":        "E-001",
			"first_name":         "Hanako",
			"last_name":          "Sato",
			"email":              "hanako@example.com",
			"username":           "hsato",
			"gender":             &gender,
			"date_of_birth":      &dob,
			"date_joined":        joined,
			"employment_type":    "FULL_TIME",
			"status":             "ON_LEAVE",
			"notice_period_days": 60,
			"manager_l1_id":      &managerID,
			"is_active":          true,
			"created_at":         createdAt,
			"updated_at":         createdAt,
		})
	}}

	emp, err := scanEmployee(row)
	if err != nil {
		t.Fatalf("scanEmployee returned error: %v", err)
	}

	if emp.ID != id || emp.EmployeeID != "E-001" {
		t.Fatalf("unexpected identity: %+v", emp)
	}
	if emp.Status != employee.StatusOnLeave || emp.EmploymentType != employee.EmploymentTypeFullTime {
		t.Fatalf("unexpected enums: %s / %s", emp.Status, emp.EmploymentType)
	}
	if emp.Gender == nil || *emp.Gender != employee.GenderFemale {
		t.Fatalf("expected gender FEMALE, got %v", emp.Gender)
	}
	if emp.MaritalStatus != nil {
		t.Fatalf("expected nil marital status, got %v", *emp.MaritalStatus)
	}
	if !emp.DateJoined.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date_joined truncated to 2024-04-01, got %v", emp.DateJoined)
	}
	if emp.DateOfBirth == nil || !emp.DateOfBirth.Equal(dob) {
		t.Fatalf("unexpected date_of_birth: %v", emp.DateOfBirth)
	}
	if emp.ManagerL1ID == nil || *emp.ManagerL1ID != managerID {
		t.Fatalf("unexpected manager: %v", emp.ManagerL1ID)
	}
	if emp.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected created_at in UTC, got %v", emp.CreatedAt.Location())
	}
	if emp.NoticePeriodDays != 60 {
		t.Fatalf("expected notice period 60, got %d", emp.NoticePeriodDays)
	}
}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...any) error {
		return pgx.ErrNoRows
	}}

	_, err := scanEmployee(row)
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestTranslateEmployeePgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		expected []error
	}{
		{
			name:     "email unique",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "_employee_email_unique"},
			expected: []error{employee.ErrEmailAlreadyExists, employee.ErrUniquenessViolation},
		},
		{
			name:     "employee id unique index",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "ix_employees_employee_id"},
			expected: []error{employee.ErrEmployeeIDAlreadyExists, employee.ErrUniquenessViolation},
		},
		{
			name:     "username unique",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "_employee_username_unique"},
			expected: []error{employee.ErrUsernameAlreadyExists},
		},
		{
			name:     "employee number unique",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "_employee_number_unique"},
			expected: []error{employee.ErrEmployeeNumberAlreadyExists},
		},
		{
			name:     "unknown unique",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "something_else"},
			expected: []error{employee.ErrUniquenessViolation},
		},
		{
			name:     "foreign key",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "employees_department_id_fkey"},
			expected: []error{employee.ErrReferenceNotFound, employee.ErrReferentialIntegrityViolation},
		},
		{
			name:     "not null",
			err:      &pgconn.PgError{Code: notNullViolationCode, ColumnName: "first_name"},
			expected: []error{employee.ErrMissingRequiredField},
		},
		{
			name:     "termination check",
			err:      &pgconn.PgError{Code: checkViolationCode, ConstraintName: "employees_termination_after_joined"},
			expected: []error{employee.ErrInvalidDateRange},
		},
		{
			name:     "self reference check",
			err:      &pgconn.PgError{Code: checkViolationCode, ConstraintName: "employees_no_self_reference"},
			expected: []error{employee.ErrSelfReference},
		},
		{
			name:     "no rows",
			err:      pgx.ErrNoRows,
			expected: []error{employee.ErrEmployeeNotFound},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := translateEmployeePgError(tc.err)
			for _, want := range tc.expected {
				if !errors.Is(got, want) {
					t.Fatalf("expected %v to wrap %v", got, want)
				}
			}
		})
	}

	other := errors.New("other")
	if translateEmployeePgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestUpdateEmployeeSQL_SkipsCreatedAt(t *testing.T) {
	t.Parallel()

	if strings.Contains(updateEmployeeSQL, "created_at =") {
		t.Fatalf("update must not overwrite created_at: %s", updateEmployeeSQL)
	}

	args := updateEmployeeArgs(&employee.Employee{ID: uuid.New()})
	if len(args) != len(employeeColumns)-1 {
		t.Fatalf("expected %d args, got %d", len(employeeColumns)-1, len(args))
	}

	last := "$" + strconv.Itoa(len(args))
	if !strings.Contains(updateEmployeeSQL, last) {
		t.Fatalf("expected placeholder %s in update statement", last)
	}
	if strings.Contains(updateEmployeeSQL, "$"+strconv.Itoa(len(args)+1)) {
		t.Fatalf("unexpected placeholder beyond %s", last)
	}
	if !strings.Contains(insertEmployeeSQL, "::employee_status") {
		t.Fatalf("expected enum cast in insert statement")
	}
}

func TestEmployeeRepository_Create_UniqueViolation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	pgErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "_employee_email_unique"}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs(anyArgs(len(employeeColumns))...).
		WillReturnError(pgErr)

	repo := NewEmployeeRepository(mock)
	_, err = repo.Create(context.Background(), employee.NewEmployee("E-001", "Taro", "Yamada", "taro@example.com", "tyamada", time.Now()))

	if !errors.Is(err, employee.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
	if !errors.Is(err, employee.ErrUniquenessViolation) {
		t.Fatalf("expected ErrUniquenessViolation, got %v", err)
	}
	var got *pgconn.PgError
	if !errors.As(err, &got) || got.ConstraintName != "_employee_email_unique" {
		t.Fatalf("expected original PgError to be preserved, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_FindByIDForUpdate_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM employees\s+WHERE id = \$1\s+LIMIT 1 FOR UPDATE`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewEmployeeRepository(mock)
	if _, err := repo.FindByIDForUpdate(context.Background(), id); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_ListByReportingLink(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	managerID := uuid.New()
	reportID := uuid.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	values := map[string]any{
		"id":                 reportID,
		"employee_id":        "E-002",
		"first_name":         "Jiro",
		"last_name":          "Suzuki",
		"email":              "jiro@example.com",
		"username":           "jsuzuki",
		"date_joined":        time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
		"employment_type":    "CONTRACT",
		"status":             "ACTIVE",
		"notice_period_days": 30,
		"manager_l1_id":      &managerID,
		"is_active":          true,
		"created_at":         now,
		"updated_at":         now,
	}
	row := make([]any, len(employeeColumns))
	for i, col := range employeeColumns {
		row[i] = values[col]
	}

	mock.ExpectQuery(`WHERE manager_l1_id = \$1\s+ORDER BY last_name, first_name, id`).
		WithArgs(managerID).
		WillReturnRows(pgxmock.NewRows(employeeColumns).AddRow(row...))

	repo := NewEmployeeRepository(mock)
	reports, err := repo.ListByReportingLink(context.Background(), employee.LinkManagerL1, managerID)
	if err != nil {
		t.Fatalf("ListByReportingLink returned error: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != reportID {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[0].EmploymentType != employee.EmploymentTypeContract {
		t.Fatalf("expected CONTRACT, got %s", reports[0].EmploymentType)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_ListByReportingLink_InvalidLink(t *testing.T) {
	t.Parallel()

	repo := NewEmployeeRepository(nil)
	if _, err := repo.ListByReportingLink(context.Background(), employee.ReportingLink("mentor"), uuid.New()); !errors.Is(err, employee.ErrInvalidEnum) {
		t.Fatalf("expected ErrInvalidEnum, got %v", err)
	}
}

func TestEmployeeRepository_Delete(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewEmployeeRepository(mock)
	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), id); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound on second delete, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
