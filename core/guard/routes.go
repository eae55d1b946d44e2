package guard

import "github.com/trezcool/mahudhurio/core/account"

// Route declares a role-restricted page and the roles allowed to view it.
type Route struct {
	Name     string
	Path     string
	Title    string
	Roles    account.RoleSet
	Resource string // backend collection listed by the page; "" for pages without a table
	InNav    bool   // listed in the navigation shell
}

// Routes is the static route -> allowed roles declaration table.
var Routes = []Route{
	// dashboards
	{Name: "admin-dashboard", Path: "/admin/dashboard", Title: "Dashboard", Roles: account.RoleSet{account.RoleSysAdmin}},
	{Name: "district-dashboard", Path: "/district/dashboard", Title: "Dashboard", Roles: account.RoleSet{account.RoleDistrictHead}},
	{Name: "college-dashboard", Path: "/college/dashboard", Title: "Dashboard", Roles: account.RoleSet{account.RoleCollegeAdmin}},
	{Name: "teacher-dashboard", Path: "/teacher/dashboard", Title: "Dashboard", Roles: account.RoleSet{account.RoleTeacher}},
	{Name: "student-dashboard", Path: "/student/dashboard", Title: "Dashboard", Roles: account.RoleSet{account.RoleStudent}},
	{Name: "dashboard", Path: "/dashboard", Title: "Dashboard", Roles: account.AllRoles, InNav: true},

	// hierarchy
	{Name: "regions", Path: "/regions", Title: "Regions", Roles: account.AdminRoles, Resource: "regions", InNav: true},
	{Name: "district-heads", Path: "/district-heads", Title: "District Heads", Roles: account.AdminRoles, Resource: "district-heads", InNav: true},
	{Name: "districts", Path: "/districts", Title: "Districts", Roles: account.DistrictAndUp, Resource: "districts", InNav: true},
	{Name: "colleges", Path: "/colleges", Title: "Colleges", Roles: account.DistrictAndUp, Resource: "colleges", InNav: true},
	{Name: "college-admins", Path: "/college-admins", Title: "College Admins", Roles: account.DistrictAndUp, Resource: "college-admins", InNav: true},
	{Name: "programs", Path: "/programs", Title: "Programs", Roles: account.CollegeAndUp, Resource: "programs", InNav: true},
	{Name: "sections", Path: "/sections", Title: "Sections", Roles: account.CollegeAndUp, Resource: "sections", InNav: true},
	{Name: "teachers", Path: "/teachers", Title: "Teachers", Roles: account.CollegeAndUp, Resource: "teachers", InNav: true},
	{Name: "students", Path: "/students", Title: "Students", Roles: account.StaffRoles, Resource: "students", InNav: true},

	// attendance
	{Name: "attendance", Path: "/attendance", Title: "Attendance", Roles: account.TeachingRoles, Resource: "attendance", InNav: true},
	{Name: "my-attendance", Path: "/my-attendance", Title: "My Attendance", Roles: account.RoleSet{account.RoleStudent}, Resource: "attendance/me", InNav: true},
	{Name: "reports", Path: "/reports", Title: "Reports", Roles: account.StaffRoles, Resource: "reports/attendance", InNav: true},

	{Name: "profile", Path: "/profile", Title: "Profile", Roles: account.AllRoles, InNav: true},
}

// NavFor returns the navigation entries visible to the role.
func NavFor(role account.Role) []Route {
	nav := make([]Route, 0, len(Routes))
	for _, r := range Routes {
		if r.InNav && r.Roles.Has(role) {
			nav = append(nav, r)
		}
	}
	return nav
}
