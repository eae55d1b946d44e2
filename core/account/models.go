package account

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidProfile = errors.New("invalid profile")
)

// Account is an authenticated principal as issued by the backend.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Validate checks the fields the console relies on: an id, an email and a known role.
func (a Account) Validate() error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return errors.Wrap(ErrInvalidAccount, "missing id")
	case strings.TrimSpace(a.Email) == "":
		return errors.Wrap(ErrInvalidAccount, "missing email")
	case !a.Role.Valid():
		return errors.Wrapf(ErrInvalidAccount, "unknown role %q", a.Role)
	}
	return nil
}

// Profile is the role-specific descriptive record attached to an Account.
// Its shape differs per role, so it is kept as an opaque, role-tagged set of fields.
type Profile struct {
	Role   Role                   `json:"role"`
	Fields map[string]interface{} `json:"fields"`
}

// notable fields per role, in display order
var profileShapes = map[Role][]string{
	RoleSysAdmin:     {"name", "phone"},
	RoleDistrictHead: {"name", "district_id", "phone"},
	RoleCollegeAdmin: {"name", "college_code", "college_id", "region_id", "phone"},
	RoleTeacher:      {"name", "employee_code", "college_id", "department", "phone"},
	RoleStudent:      {"name", "roll_number", "section_id", "program_id", "college_id"},
}

// NewProfile builds a Profile from the raw JSON object the backend sent for an account of the given role.
// A null or empty payload yields a Profile with no fields.
func NewProfile(role Role, raw json.RawMessage) (Profile, error) {
	prof := Profile{Role: role, Fields: map[string]interface{}{}}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return prof, nil
	}
	if err := json.Unmarshal(raw, &prof.Fields); err != nil {
		return Profile{}, errors.Wrap(ErrInvalidProfile, err.Error())
	}
	if prof.Fields == nil {
		prof.Fields = map[string]interface{}{}
	}
	return prof, nil
}

// Get returns the raw value of an optional field.
func (p Profile) Get(key string) (interface{}, bool) {
	if p.Fields == nil {
		return nil, false
	}
	val, ok := p.Fields[key]
	return val, ok && val != nil
}

// String returns an optional field formatted for display, "" when absent.
func (p Profile) String(key string) string {
	val, ok := p.Get(key)
	if !ok {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case map[string]interface{}: // nested references, eg. {"id": .., "name": ..}
		if name, ok := v["name"].(string); ok {
			return name
		}
		if id, ok := v["id"].(string); ok {
			return id
		}
	}
	return fmt.Sprint(val)
}

// DisplayName tries the common name fields of every profile shape.
func (p Profile) DisplayName() string {
	if name := p.String("name"); name != "" {
		return name
	}
	if name := p.String("full_name"); name != "" {
		return name
	}
	return strings.TrimSpace(p.String("first_name") + " " + p.String("last_name"))
}

// Keys returns the profile fields in display order: the notable fields of the role first, then the rest sorted.
func (p Profile) Keys() []string {
	keys := make([]string, 0, len(p.Fields))
	seen := make(map[string]bool, len(p.Fields))
	for _, key := range profileShapes[p.Role] {
		if _, ok := p.Get(key); ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	rest := make([]string, 0, len(p.Fields))
	for key := range p.Fields {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
