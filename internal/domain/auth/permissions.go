package auth

const (
	PermEmployeesRead     = "org.employees.read"
	PermEmployeesWrite    = "org.employees.write"
	PermCyclesRead        = "cycles.read"
	PermCyclesManage      = "cycles.manage"
	PermNominationsRead   = "nominations.read"
	PermNominationsWrite  = "nominations.write"
	PermNominationsDecide = "nominations.decide"
	PermFeedbackWrite     = "feedback.write"
	PermFeedbackRead      = "feedback.read"
	PermSummaryRead       = "summary.read"
	PermSummaryCycle      = "summary.cycle"
	PermReportsExport     = "reports.export"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermCyclesRead,
		PermNominationsRead,
		PermNominationsWrite,
		PermFeedbackWrite,
		PermFeedbackRead,
		PermSummaryRead,
	},
	RoleManager: {
		PermEmployeesRead,
		PermCyclesRead,
		PermNominationsRead,
		PermNominationsWrite,
		PermNominationsDecide,
		PermFeedbackWrite,
		PermFeedbackRead,
		PermSummaryRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermCyclesRead,
		PermCyclesManage,
		PermNominationsRead,
		PermNominationsWrite,
		PermNominationsDecide,
		PermFeedbackWrite,
		PermFeedbackRead,
		PermSummaryRead,
		PermSummaryCycle,
		PermReportsExport,
	},
}

// HasPermission resolves against the static role table. Roles are fixed;
// there is no per-user grant storage.
func HasPermission(roleName, permission string) bool {
	for _, p := range RolePermissions[roleName] {
		if p == permission {
			return true
		}
	}
	return false
}
