package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/hr-employee-model/internal/core/employee"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	notNullViolationCode    = "23502"
	checkViolationCode      = "23514"
)

var uniqueConstraintErrors = map[string]error{
	"_employee_email_unique":        employee.ErrEmailAlreadyExists,
	"ix_employees_email":            employee.ErrEmailAlreadyExists,
	"_employee_id_unique":           employee.ErrEmployeeIDAlreadyExists,
	"ix_employees_employee_id":      employee.ErrEmployeeIDAlreadyExists,
	"_employee_username_unique":     employee.ErrUsernameAlreadyExists,
	"ix_employees_username":         employee.ErrUsernameAlreadyExists,
	"_employee_number_unique":       employee.ErrEmployeeNumberAlreadyExists,
	"_employee_role_context_unique": employee.ErrRoleAlreadyAssigned,
}

var checkConstraintErrors = map[string]error{
	"employees_confirmation_after_joined": employee.ErrInvalidDateRange,
	"employees_termination_after_joined":  employee.ErrInvalidDateRange,
	"employees_no_self_reference":         employee.ErrSelfReference,
	"employee_roles_effective_period":     employee.ErrInvalidEffectivePeriod,
}

// translatePgError はストレージの制約違反を employee パッケージのエラー分類に変換します。
// 元の *pgconn.PgError もラップされたまま残ります。
func translatePgError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		if mapped, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %w", mapped, err)
		}
		return fmt.Errorf("%s: %w: %w", pgErr.ConstraintName, employee.ErrUniquenessViolation, err)
	case foreignKeyViolationCode:
		return fmt.Errorf("%s: %w: %w", pgErr.ConstraintName, employee.ErrReferenceNotFound, err)
	case notNullViolationCode:
		return fmt.Errorf("%s: %w: %w", pgErr.ColumnName, employee.ErrMissingRequiredField, err)
	case checkViolationCode:
		if mapped, ok := checkConstraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %w", mapped, err)
		}
	}

	return err
}
