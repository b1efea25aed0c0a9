package employee

import (
	"errors"
	"fmt"
)

// 永続化境界で発生するエラーの分類です。個別のエラーはいずれかをラップします。
var (
	ErrUniquenessViolation           = errors.New("employee: uniqueness violation")
	ErrReferentialIntegrityViolation = errors.New("employee: referential integrity violation")
	ErrMissingRequiredField          = errors.New("employee: missing required field")
)

var (
	ErrEmailAlreadyExists          = fmt.Errorf("email already exists: %w", ErrUniquenessViolation)
	ErrEmployeeIDAlreadyExists     = fmt.Errorf("employee id already exists: %w", ErrUniquenessViolation)
	ErrUsernameAlreadyExists       = fmt.Errorf("username already exists: %w", ErrUniquenessViolation)
	ErrEmployeeNumberAlreadyExists = fmt.Errorf("employee number already exists: %w", ErrUniquenessViolation)
	ErrRoleAlreadyAssigned         = fmt.Errorf("role already assigned in context: %w", ErrUniquenessViolation)
	ErrReferenceNotFound           = fmt.Errorf("referenced record not found: %w", ErrReferentialIntegrityViolation)
)

var (
	ErrInvalidID              = errors.New("employee: invalid id")
	ErrInvalidStatus          = errors.New("employee: invalid status")
	ErrInvalidEnum            = errors.New("employee: invalid enum value")
	ErrInvalidDateRange       = errors.New("employee: date precedes date_joined")
	ErrInvalidEffectivePeriod = errors.New("employee: effective_to precedes effective_from")
	ErrSelfReference          = errors.New("employee: reporting link references itself")
	ErrEmployeeNotFound       = errors.New("employee: not found")
	ErrRoleAssignmentNotFound = errors.New("employee: role assignment not found")
	ErrRoleAlreadyRevoked     = errors.New("employee: role assignment already revoked")
)

func missingField(name string) error {
	return fmt.Errorf("%s: %w", name, ErrMissingRequiredField)
}
