package core

import "hrms/internal/domain/auth"

// FilterEmployeeFields hides personal contact data from users looking at
// someone else's record.
func FilterEmployeeFields(emp *Employee, user auth.UserContext) {
	if user.IsAdmin() || user.EmployeeID == emp.ID {
		return
	}
	emp.Phone = ""
	emp.BirthDate = nil
	emp.SalaryGrade = ""
}
