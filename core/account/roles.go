package account

import "strings"

// Role is one of the five tiers of the hierarchy.
type Role string

// Roles
const (
	RoleSysAdmin     Role = "SysAdmin"
	RoleDistrictHead Role = "DistrictHead"
	RoleCollegeAdmin Role = "CollegeAdmin"
	RoleTeacher      Role = "Teacher"
	RoleStudent      Role = "Student"
)

var (
	// AllRoles is ordered from the top of the hierarchy down.
	AllRoles = RoleSet{RoleSysAdmin, RoleDistrictHead, RoleCollegeAdmin, RoleTeacher, RoleStudent}

	// grouped role sets used by route declarations
	AdminRoles    = RoleSet{RoleSysAdmin}
	DistrictAndUp = RoleSet{RoleSysAdmin, RoleDistrictHead}
	CollegeAndUp  = RoleSet{RoleSysAdmin, RoleDistrictHead, RoleCollegeAdmin}
	StaffRoles    = RoleSet{RoleSysAdmin, RoleDistrictHead, RoleCollegeAdmin, RoleTeacher}
	TeachingRoles = RoleSet{RoleCollegeAdmin, RoleTeacher}

	dashboards = map[Role]string{
		RoleSysAdmin:     "/admin/dashboard",
		RoleDistrictHead: "/district/dashboard",
		RoleCollegeAdmin: "/college/dashboard",
		RoleTeacher:      "/teacher/dashboard",
		RoleStudent:      "/student/dashboard",
	}

	roleNames = map[Role]string{
		RoleSysAdmin:     "System Administrator",
		RoleDistrictHead: "District Head",
		RoleCollegeAdmin: "College Admin",
		RoleTeacher:      "Teacher",
		RoleStudent:      "Student",
	}
)

// ParseRole matches s against the closed role set, case-insensitively.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, role := range AllRoles {
		if strings.EqualFold(string(role), s) {
			return role, true
		}
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := dashboards[r]
	return ok
}

// Name is the human readable role name.
func (r Role) Name() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return string(r)
}

// DashboardPath returns the home dashboard of the role, "" for unknown roles.
func DashboardPath(r Role) string {
	return dashboards[r]
}

// RoleSet is a declared set of allowed roles.
type RoleSet []Role

func (rs RoleSet) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

func (rs RoleSet) Strings() []string {
	ss := make([]string, 0, len(rs))
	for _, r := range rs {
		ss = append(ss, string(r))
	}
	return ss
}
