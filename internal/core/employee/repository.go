package employee

import (
	"context"

	"github.com/google/uuid"
)

// ReportingLink は社員同士を結ぶ自己参照の外部キーです。
type ReportingLink string

const (
	LinkManagerL1 ReportingLink = "manager_l1"
	LinkManagerL2 ReportingLink = "manager_l2"
	LinkHRPartner ReportingLink = "hr_partner"
	LinkCreatedBy ReportingLink = "created_by"
)

func (l ReportingLink) IsValid() bool {
	switch l {
	case LinkManagerL1, LinkManagerL2, LinkHRPartner, LinkCreatedBy:
		return true
	default:
		return false
	}
}

// Target は e が link で参照している社員 ID を返します。
func (l ReportingLink) Target(e *Employee) *uuid.UUID {
	switch l {
	case LinkManagerL1:
		return e.ManagerL1ID
	case LinkManagerL2:
		return e.ManagerL2ID
	case LinkHRPartner:
		return e.HRPartnerID
	case LinkCreatedBy:
		return e.CreatedBy
	default:
		return nil
	}
}

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	// Delete は社員を削除します。紐づく EmployeeRole はストレージ側で連鎖削除されます。
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	// FindByIDForUpdate は更新のために行ロックを取得して社員を取得します。
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
	// FindByEmail は保存済みの email と完全一致で検索します。Service は書き込み時に小文字化して保存するため、
	// Service を経由しない呼び出し側も trim と小文字化を済ませた値を渡してください。
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	FindByUsername(ctx context.Context, username string) (*Employee, error)
	// ListByReportingLink は link が id を指している社員 (部下など) を返します。
	ListByReportingLink(ctx context.Context, link ReportingLink, id uuid.UUID) ([]*Employee, error)
}

// RoleRepository はロール割り当て永続化の抽象です。
type RoleRepository interface {
	Create(ctx context.Context, role *EmployeeRole) (*EmployeeRole, error)
	Update(ctx context.Context, role *EmployeeRole) (*EmployeeRole, error)
	FindByID(ctx context.Context, id uuid.UUID) (*EmployeeRole, error)
	// FindByIDForUpdate は失効処理のために行ロックを取得して割り当てを取得します。
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*EmployeeRole, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]*EmployeeRole, error)
}
