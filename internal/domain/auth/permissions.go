package auth

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	PermEmployeesRead    = "core.employees.read"
	PermEmployeesWrite   = "core.employees.write"
	PermOrgRead          = "core.org.read"
	PermOrgWrite         = "core.org.write"
	PermUsersManage      = "auth.users.manage"
	PermAttendanceRead   = "attendance.read"
	PermAttendanceWrite  = "attendance.write"
	PermAttendanceManage = "attendance.manage"
	PermLeaveRead        = "leave.read"
	PermLeaveWrite       = "leave.write"
	PermLeaveApprove     = "leave.approve"
	PermLeaveGrant       = "leave.grant"
	PermEvaluationRead   = "performance.read"
	PermEvaluationWrite  = "performance.write"
	PermEvaluationManage = "performance.manage"
	PermBonusRead        = "bonus.read"
	PermBonusManage      = "bonus.manage"
	PermBonusPay         = "bonus.pay"
	PermPayrollRead      = "payroll.read"
	PermPayrollWrite     = "payroll.write"
	PermPayrollFinalize  = "payroll.finalize"
	PermAuditRead        = "audit.read"
	PermReportsRead      = "reports.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermOrgRead,
	PermOrgWrite,
	PermUsersManage,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceManage,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermLeaveGrant,
	PermEvaluationRead,
	PermEvaluationWrite,
	PermEvaluationManage,
	PermBonusRead,
	PermBonusManage,
	PermBonusPay,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollFinalize,
	PermAuditRead,
	PermReportsRead,
}

// RolePermissions is the static grant table. Users get self-service access;
// handlers narrow reads to the caller's own employee record.
var RolePermissions = map[string][]string{
	RoleUser: {
		PermEmployeesRead,
		PermOrgRead,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermEvaluationRead,
		PermEvaluationWrite,
		PermBonusRead,
		PermPayrollRead,
	},
	RoleAdmin: DefaultPermissions,
}

func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
