package authcore

import "github.com/MrEthical07/authcore/permission"

// Capabilities of the built-in role table.
const (
	CapViewProfile          = "viewProfile"
	CapEditOwnProfile       = "editOwnProfile"
	CapSendMessage          = "sendMessage"
	CapEvaluateStudent      = "evaluateStudent"
	CapViewStudents         = "viewStudents"
	CapAssignMentor         = "assignMentor"
	CapApproveReport        = "approveReport"
	CapEditDepartment       = "editDepartment"
	CapAssignAdvisor        = "assignAdvisor"
	CapViewDepartment       = "viewDepartment"
	CapEditCollege          = "editCollege"
	CapViewCollege          = "viewCollege"
	CapAssignDepartmentHead = "assignDepartmentHead"
)

// Built-in roles.
const (
	RoleMentor         = "mentor"
	RoleAdvisor        = "advisor"
	RoleDepartmentHead = "departmentHead"
	RoleDean           = "dean"
	RoleAdmin          = "admin"
)

// DefaultRoleTable returns the platform's role to capability table. Each
// call returns a fresh map; admin holds the wildcard.
func DefaultRoleTable() map[string][]string {
	mentor := []string{CapViewProfile, CapEditOwnProfile, CapSendMessage, CapEvaluateStudent}
	advisor := append(append([]string{}, mentor...), CapViewStudents, CapAssignMentor, CapApproveReport)
	departmentHead := append(append([]string{}, advisor...), CapEditDepartment, CapAssignAdvisor, CapViewDepartment)

	return map[string][]string{
		RoleMentor:         mentor,
		RoleAdvisor:        advisor,
		RoleDepartmentHead: departmentHead,
		RoleDean: {
			CapViewProfile, CapEditOwnProfile, CapSendMessage,
			CapEditCollege, CapViewCollege, CapAssignDepartmentHead, CapEditDepartment, CapViewDepartment,
		},
		RoleAdmin: {permission.Wildcard},
	}
}
