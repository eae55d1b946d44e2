package devapi

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/guard"
)

const maxPageSize = 100

var seedNamespace = uuid.MustParse("0f6f54f4-5a4a-4b7e-9d87-b5ad4e0e6a5c")

type (
	// Row is one item of a resource listing.
	Row map[string]interface{}

	// Resources holds the seeded collections, keyed by resource name (eg. "regions").
	Resources struct {
		mutex       sync.RWMutex
		collections map[string][]Row
	}

	pageResponse struct {
		Items []Row `json:"items"`
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int   `json:"total"`
	}
)

func NewResources() *Resources {
	return &Resources{collections: make(map[string][]Row)}
}

func (res *Resources) Put(name string, rows ...Row) {
	res.mutex.Lock()
	defer res.mutex.Unlock()
	res.collections[name] = append(res.collections[name], rows...)
}

// Page returns the rows of page (1-based) matching keep, or all of them when keep is nil.
func (res *Resources) Page(name string, page, limit int, keep func(Row) bool) pageResponse {
	res.mutex.RLock()
	defer res.mutex.RUnlock()

	rows := res.collections[name]
	if keep != nil {
		filtered := make([]Row, 0, len(rows))
		for _, row := range rows {
			if keep(row) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	resp := pageResponse{Items: []Row{}, Page: page, Limit: limit, Total: len(rows)}
	start := (page - 1) * limit
	if start >= len(rows) {
		return resp
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	resp.Items = append(resp.Items, rows[start:end]...)
	return resp
}

func seedID(kind string, i int) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%s-%d", kind, i))).String()
}

// SeedAccount describes a demo account created by Seed.
type SeedAccount struct {
	Email   string
	Role    account.Role
	Profile map[string]interface{}
}

// SeedAccounts has one account per role.
var SeedAccounts = []SeedAccount{
	{Email: "admin@mahudhurio.test", Role: account.RoleSysAdmin, Profile: Row{"name": "Asha Mwangi", "phone": "+255 700 000 001"}},
	{Email: "district@mahudhurio.test", Role: account.RoleDistrictHead, Profile: Row{"name": "Baraka Said", "district_id": seedID("district", 1)}},
	{
		Email: "college@mahudhurio.test", Role: account.RoleCollegeAdmin,
		Profile: Row{"name": "Chausiku Ali", "college_code": "COL-01", "college_id": seedID("college", 1), "region_id": seedID("region", 1)},
	},
	{
		Email: "teacher@mahudhurio.test", Role: account.RoleTeacher,
		Profile: Row{"name": "Daudi Kimaro", "employee_code": "EMP-001", "college_id": seedID("college", 1), "department": "Mathematics"},
	},
	{
		Email: "student@mahudhurio.test", Role: account.RoleStudent,
		Profile: Row{"name": "Eshe Juma", "roll_number": "STU-0001", "section_id": seedID("section", 1), "program_id": seedID("program", 1)},
	},
}

// Seed creates the demo accounts, all sharing pwd, and fills the collections.
func Seed(accounts *Accounts, res *Resources, pwd string) error {
	var studentID string
	for _, sa := range SeedAccounts {
		rec, err := accounts.Create(sa.Email, pwd, sa.Role, sa.Profile, true)
		if err != nil {
			return errors.Wrapf(err, "creating %s", sa.Email)
		}
		if sa.Role == account.RoleStudent {
			studentID = rec.ID
		}
	}

	for i := 1; i <= 3; i++ {
		res.Put("regions", Row{"id": seedID("region", i), "name": fmt.Sprintf("Region %d", i), "code": fmt.Sprintf("R%02d", i)})
	}
	for i := 1; i <= 6; i++ {
		res.Put("districts", Row{"id": seedID("district", i), "name": fmt.Sprintf("District %d", i), "region_id": seedID("region", (i-1)%3+1)})
		res.Put("district-heads", Row{"id": seedID("district-head", i), "name": fmt.Sprintf("District Head %d", i), "district_id": seedID("district", i)})
	}
	for i := 1; i <= 8; i++ {
		res.Put("colleges", Row{"id": seedID("college", i), "name": fmt.Sprintf("College %d", i), "code": fmt.Sprintf("COL-%02d", i), "district_id": seedID("district", (i-1)%6+1)})
		res.Put("college-admins", Row{"id": seedID("college-admin", i), "name": fmt.Sprintf("College Admin %d", i), "college_id": seedID("college", i)})
	}
	for i := 1; i <= 5; i++ {
		res.Put("programs", Row{"id": seedID("program", i), "name": fmt.Sprintf("Program %d", i), "college_id": seedID("college", (i-1)%8+1)})
	}
	for i := 1; i <= 10; i++ {
		res.Put("sections", Row{"id": seedID("section", i), "name": fmt.Sprintf("Section %c", 'A'+i-1), "program_id": seedID("program", (i-1)%5+1)})
	}
	for i := 1; i <= 12; i++ {
		res.Put("teachers", Row{"id": seedID("teacher", i), "name": fmt.Sprintf("Teacher %d", i), "employee_code": fmt.Sprintf("EMP-%03d", i)})
	}
	for i := 1; i <= 40; i++ {
		res.Put("students", Row{"id": seedID("student", i), "name": fmt.Sprintf("Student %d", i), "roll_number": fmt.Sprintf("STU-%04d", i), "section_id": seedID("section", (i-1)%10+1)})
	}

	statuses := []string{"present", "present", "present", "late", "absent"}
	for i := 1; i <= 60; i++ {
		sid := seedID("student", (i-1)%40+1)
		if i%4 == 0 {
			sid = studentID
		}
		res.Put("attendance", Row{
			"id":         seedID("attendance", i),
			"student_id": sid,
			"section_id": seedID("section", (i-1)%10+1),
			"date":       fmt.Sprintf("2024-03-%02d", (i-1)%28+1),
			"status":     statuses[i%len(statuses)],
		})
	}
	for i := 1; i <= 10; i++ {
		present := 70 + (i*7)%30
		res.Put("reports/attendance", Row{"section_id": seedID("section", i), "section": fmt.Sprintf("Section %c", 'A'+i-1), "present_pct": present, "absent_pct": 100 - present})
	}
	return nil
}

type resourceHandler struct {
	res         *Resources
	defaultSize int
}

// register adds one listing endpoint per declared route resource, restricted to the roles of that route.
func (h resourceHandler) register(group *echo.Group, auth echo.MiddlewareFunc) {
	for _, route := range guard.Routes {
		if route.Resource == "" {
			continue
		}
		group.GET("/"+route.Resource, h.list(route.Resource), auth, roleMiddleware(route.Roles))
	}
}

func (h resourceHandler) list(name string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		page, err := intParam(ctx, "page", 1)
		if err != nil {
			return err
		}
		limit, err := intParam(ctx, "limit", h.defaultSize)
		if err != nil {
			return err
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		collection := name
		var keep func(Row) bool
		if name == "attendance/me" {
			claims, cErr := getContextClaims(ctx)
			if cErr != nil {
				return errors.Wrap(cErr, "getting context claims")
			}
			keep = func(row Row) bool { return row["student_id"] == claims.Subject }
			collection = "attendance"
		}
		return ctx.JSON(http.StatusOK, h.res.Page(collection, page, limit, keep))
	}
}

func intParam(ctx echo.Context, name string, def int) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return val, nil
}
