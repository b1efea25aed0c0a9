package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/hr-employee-model/internal/core/employee"
	pgdb "github.com/ogurasousui/hr-employee-model/internal/platform/db/postgres"
)

const employeeRoleSelectList = `id, employee_id, role_id, context_type, context_id, effective_from, effective_to,
       is_active, is_primary, assigned_at, assigned_by, revoked_at, revoked_by`

// EmployeeRoleRepository は PostgreSQL を利用したロール割り当て永続化の実装です。
type EmployeeRoleRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRoleRepository は EmployeeRoleRepository を生成します。
func NewEmployeeRoleRepository(pool pgdb.Queryer) *EmployeeRoleRepository {
	return &EmployeeRoleRepository{pool: pool}
}

// Create はロール割り当てを新規作成します。
func (r *EmployeeRoleRepository) Create(ctx context.Context, role *employee.EmployeeRole) (*employee.EmployeeRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employee_roles (
            id, employee_id, role_id, context_type, context_id, effective_from, effective_to,
            is_active, is_primary, assigned_at, assigned_by, revoked_at, revoked_by
        )
        VALUES ($1, $2, $3, $4::role_context_type, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING `+employeeRoleSelectList,
		role.ID,
		role.EmployeeID,
		role.RoleID,
		enumText(role.ContextType),
		role.ContextID,
		nullableTimestamp(role.EffectiveFrom),
		nullableTimestamp(role.EffectiveTo),
		role.IsActive,
		role.IsPrimary,
		role.AssignedAt.UTC(),
		role.AssignedBy,
		nullableTimestamp(role.RevokedAt),
		role.RevokedBy,
	)

	created, err := scanEmployeeRole(row)
	if err != nil {
		return nil, translateEmployeeRolePgError(err)
	}
	return created, nil
}

// Update は割り当ての期間・状態・失効情報を更新します。employee_id と role_id、コンテキストは変更しません。
func (r *EmployeeRoleRepository) Update(ctx context.Context, role *employee.EmployeeRole) (*employee.EmployeeRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employee_roles
           SET effective_from = $1,
               effective_to = $2,
               is_active = $3,
               is_primary = $4,
               revoked_at = $5,
               revoked_by = $6
         WHERE id = $7
        RETURNING `+employeeRoleSelectList,
		nullableTimestamp(role.EffectiveFrom),
		nullableTimestamp(role.EffectiveTo),
		role.IsActive,
		role.IsPrimary,
		nullableTimestamp(role.RevokedAt),
		role.RevokedBy,
		role.ID,
	)

	updated, err := scanEmployeeRole(row)
	if err != nil {
		return nil, translateEmployeeRolePgError(err)
	}
	return updated, nil
}

// FindByID は ID でロール割り当てを取得します。
func (r *EmployeeRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*employee.EmployeeRole, error) {
	return r.findByID(ctx, id, "")
}

// FindByIDForUpdate は行ロック付きでロール割り当てを取得します。トランザクション内で呼び出してください。
func (r *EmployeeRoleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*employee.EmployeeRole, error) {
	return r.findByID(ctx, id, " FOR UPDATE")
}

func (r *EmployeeRoleRepository) findByID(ctx context.Context, id uuid.UUID, suffix string) (*employee.EmployeeRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeRoleSelectList+`
          FROM employee_roles
         WHERE id = $1
         LIMIT 1`+suffix, id)

	found, err := scanEmployeeRole(row)
	if err != nil {
		return nil, translateEmployeeRolePgError(err)
	}
	return found, nil
}

// ListByEmployee は社員のロール割り当てを付与順に返します。
func (r *EmployeeRoleRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]*employee.EmployeeRole, error) {
	query := `SELECT ` + employeeRoleSelectList + `
          FROM employee_roles
         WHERE employee_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY assigned_at, id`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, employeeID)
	if err != nil {
		return nil, translateEmployeeRolePgError(err)
	}
	defer rows.Close()

	roles := make([]*employee.EmployeeRole, 0)
	for rows.Next() {
		role, err := scanEmployeeRole(rows)
		if err != nil {
			return nil, translateEmployeeRolePgError(err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeeRolePgError(err)
	}

	return roles, nil
}

func scanEmployeeRole(row pgx.Row) (*employee.EmployeeRole, error) {
	var (
		role        employee.EmployeeRole
		contextType *string
	)

	if err := row.Scan(
		&role.ID,
		&role.EmployeeID,
		&role.RoleID,
		&contextType,
		&role.ContextID,
		&role.EffectiveFrom,
		&role.EffectiveTo,
		&role.IsActive,
		&role.IsPrimary,
		&role.AssignedAt,
		&role.AssignedBy,
		&role.RevokedAt,
		&role.RevokedBy,
	); err != nil {
		return nil, err
	}

	if contextType != nil {
		c := employee.ContextType(*contextType)
		role.ContextType = &c
	}
	role.AssignedAt = role.AssignedAt.UTC()
	role.EffectiveFrom = utcPtr(role.EffectiveFrom)
	role.EffectiveTo = utcPtr(role.EffectiveTo)
	role.RevokedAt = utcPtr(role.RevokedAt)

	return &role, nil
}

func translateEmployeeRolePgError(err error) error {
	return translatePgError(err, employee.ErrRoleAssignmentNotFound)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
