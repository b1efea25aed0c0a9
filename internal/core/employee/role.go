package employee

import (
	"time"

	"github.com/google/uuid"
)

// ContextType はロール付与の適用範囲の種別です。
type ContextType string

const (
	ContextOrganization ContextType = "ORGANIZATION"
	ContextDepartment   ContextType = "DEPARTMENT"
	ContextProject      ContextType = "PROJECT"
	ContextLocation     ContextType = "LOCATION"
	ContextTeam         ContextType = "TEAM"
)

func (c ContextType) IsValid() bool {
	switch c {
	case ContextOrganization, ContextDepartment, ContextProject, ContextLocation, ContextTeam:
		return true
	default:
		return false
	}
}

// EmployeeRole は社員とロールの割り当てです。
// 失効は行削除ではなく IsActive と RevokedAt/RevokedBy で表現します。
type EmployeeRole struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	RoleID     uuid.UUID

	ContextType *ContextType
	ContextID   *string

	EffectiveFrom *time.Time
	EffectiveTo   *time.Time

	IsActive  bool
	IsPrimary bool

	AssignedAt time.Time
	AssignedBy *uuid.UUID
	RevokedAt  *time.Time
	RevokedBy  *uuid.UUID
}

// IsRevoked は失効処理済みかを返します。
func (r *EmployeeRole) IsRevoked() bool {
	return r.RevokedAt != nil
}
