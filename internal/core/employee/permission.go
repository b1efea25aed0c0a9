package employee

// Module は権限判定の対象となる業務モジュールです。
type Module string

const (
	ModuleAdmin     Module = "ADMIN"
	ModuleHR        Module = "HR"
	ModuleFinance   Module = "FINANCE"
	ModuleProjects  Module = "PROJECTS"
	ModuleTimesheet Module = "TIMESHEET"
	ModuleLeave     Module = "LEAVE"
	ModulePayroll   Module = "PAYROLL"
	ModuleReports   Module = "REPORTS"
)

func (m Module) IsValid() bool {
	switch m {
	case ModuleAdmin, ModuleHR, ModuleFinance, ModuleProjects,
		ModuleTimesheet, ModuleLeave, ModulePayroll, ModuleReports:
		return true
	default:
		return false
	}
}

// PermissionLevel はモジュールに対して要求する操作の強さです。
type PermissionLevel string

const (
	PermissionNone    PermissionLevel = "NONE"
	PermissionRead    PermissionLevel = "READ"
	PermissionWrite   PermissionLevel = "WRITE"
	PermissionApprove PermissionLevel = "APPROVE"
	PermissionAdmin   PermissionLevel = "ADMIN"
)

func (p PermissionLevel) IsValid() bool {
	switch p {
	case PermissionNone, PermissionRead, PermissionWrite, PermissionApprove, PermissionAdmin:
		return true
	default:
		return false
	}
}

// AccessLevel は社員フラグから導出される最上位の権限区分です。
type AccessLevel string

const (
	AccessSuperAdmin AccessLevel = "SUPER_ADMIN"
	AccessHRAdmin    AccessLevel = "HR_ADMIN"
	AccessManager    AccessLevel = "MANAGER"
	AccessFinance    AccessLevel = "FINANCE"
	AccessEmployee   AccessLevel = "EMPLOYEE"
)

// PermissionLevel は admin > hr > manager > finance の優先順で最上位の区分を返します。
func (e *Employee) PermissionLevel() AccessLevel {
	switch {
	case e.IsAdmin:
		return AccessSuperAdmin
	case e.IsHR:
		return AccessHRAdmin
	case e.IsManager:
		return AccessManager
	case e.IsFinance:
		return AccessFinance
	default:
		return AccessEmployee
	}
}

// HasPermission はモジュールに対する操作が許可されているかを判定します。
func (e *Employee) HasPermission(module Module, action PermissionLevel) bool {
	if e.IsAdmin {
		return true
	}
	if module == ModuleHR && e.IsHR {
		return true
	}
	if module == ModuleFinance && e.IsFinance {
		return true
	}
	return e.checkRolePermissions(module, action)
}

// checkRolePermissions はロール割り当てに基づく判定です。
// TODO: 有効な EmployeeRole とロール側の権限定義を突き合わせる。ロール定義の仕様が決まるまでは常に拒否する。
func (e *Employee) checkRolePermissions(Module, PermissionLevel) bool {
	return false
}
