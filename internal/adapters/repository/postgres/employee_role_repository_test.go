package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hr-employee-model/internal/core/employee"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var employeeRoleColumns = []string{
	"id", "employee_id", "role_id", "context_type", "context_id", "effective_from", "effective_to",
	"is_active", "is_primary", "assigned_at", "assigned_by", "revoked_at", "revoked_by",
}

func TestEmployeeRoleRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	ctxType := employee.ContextProject
	contextID := "PRJ-42"
	assignedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	role := &employee.EmployeeRole{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		RoleID:      uuid.New(),
		ContextType: &ctxType,
		ContextID:   &contextID,
		IsActive:    true,
		AssignedAt:  assignedAt,
	}

	ctxText := string(ctxType)
	rows := pgxmock.NewRows(employeeRoleColumns).
		AddRow(role.ID, role.EmployeeID, role.RoleID, &ctxText, &contextID, nil, nil, true, false, assignedAt, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("$4::role_context_type")).
		WithArgs(role.ID, role.EmployeeID, role.RoleID, "PROJECT", &contextID, nil, nil, true, false, assignedAt, role.AssignedBy, nil, role.RevokedBy).
		WillReturnRows(rows)

	repo := NewEmployeeRoleRepository(mock)
	created, err := repo.Create(context.Background(), role)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ContextType == nil || *created.ContextType != employee.ContextProject {
		t.Fatalf("expected PROJECT context, got %v", created.ContextType)
	}
	if created.ContextID == nil || *created.ContextID != contextID {
		t.Fatalf("expected context id %s, got %v", contextID, created.ContextID)
	}
	if created.EffectiveFrom != nil || created.RevokedAt != nil {
		t.Fatalf("expected nullable timestamps to stay nil: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRoleRepository_Create_DuplicateContext(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employee_roles")).
		WithArgs(anyArgs(13)...).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "_employee_role_context_unique"})

	repo := NewEmployeeRoleRepository(mock)
	_, err = repo.Create(context.Background(), &employee.EmployeeRole{
		ID:         uuid.New(),
		EmployeeID: uuid.New(),
		RoleID:     uuid.New(),
		IsActive:   true,
		AssignedAt: time.Now(),
	})

	if !errors.Is(err, employee.ErrRoleAlreadyAssigned) {
		t.Fatalf("expected ErrRoleAlreadyAssigned, got %v", err)
	}
	if !errors.Is(err, employee.ErrUniquenessViolation) {
		t.Fatalf("expected ErrUniquenessViolation, got %v", err)
	}
}

func TestEmployeeRoleRepository_ListByEmployee_ActiveOnly(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	employeeID := uuid.New()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	rows := pgxmock.NewRows(employeeRoleColumns).
		AddRow(uuid.New(), employeeID, uuid.New(), nil, nil, nil, nil, true, true, first, nil, nil, nil).
		AddRow(uuid.New(), employeeID, uuid.New(), nil, nil, nil, nil, true, false, second, nil, nil, nil)

	mock.ExpectQuery(`WHERE employee_id = \$1 AND is_active ORDER BY assigned_at, id`).
		WithArgs(employeeID).
		WillReturnRows(rows)

	repo := NewEmployeeRoleRepository(mock)
	roles, err := repo.ListByEmployee(context.Background(), employeeID, true)
	if err != nil {
		t.Fatalf("ListByEmployee returned error: %v", err)
	}

	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
	if !roles[0].IsPrimary || roles[1].IsPrimary {
		t.Fatalf("unexpected primary flags: %v %v", roles[0].IsPrimary, roles[1].IsPrimary)
	}
	if roles[0].ContextType != nil {
		t.Fatalf("expected organization-wide role, got %v", *roles[0].ContextType)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRoleRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM employee_roles\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewEmployeeRoleRepository(mock)
	if _, err := repo.FindByID(context.Background(), id); !errors.Is(err, employee.ErrRoleAssignmentNotFound) {
		t.Fatalf("expected ErrRoleAssignmentNotFound, got %v", err)
	}
}

func TestEmployeeRoleRepository_FindByIDForUpdate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	employeeID := uuid.New()
	assignedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(employeeRoleColumns).
		AddRow(id, employeeID, uuid.New(), nil, nil, nil, nil, true, false, assignedAt, nil, nil, nil)

	mock.ExpectQuery(`FROM employee_roles\s+WHERE id = \$1\s+LIMIT 1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(rows)

	repo := NewEmployeeRoleRepository(mock)
	locked, err := repo.FindByIDForUpdate(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByIDForUpdate returned error: %v", err)
	}
	if locked.ID != id || locked.EmployeeID != employeeID || !locked.IsActive {
		t.Fatalf("unexpected assignment: %+v", locked)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRoleRepository_Update_EffectivePeriod(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE employee_roles")).
		WithArgs(anyArgs(7)...).
		WillReturnError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "employee_roles_effective_period"})

	repo := NewEmployeeRoleRepository(mock)
	if _, err := repo.Update(context.Background(), &employee.EmployeeRole{ID: uuid.New()}); !errors.Is(err, employee.ErrInvalidEffectivePeriod) {
		t.Fatalf("expected ErrInvalidEffectivePeriod, got %v", err)
	}
}
