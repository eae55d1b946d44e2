package consoleweb

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
)

type (
	pageData struct {
		Title         string
		AppName       string
		Current       string
		Shell         bool // render inside the navigation shell
		Authenticated bool
		Nav           []guard.Route
		DisplayName   string
		RoleName      string
		DashboardPath string
		Toasts        []toast

		// page specific
		Dashboard    bool
		Table        *table
		Profile      []profileField
		Login        *loginForm
		ErrorMessage string
	}

	loginForm struct {
		Email       string
		Errors      map[string]string // {field: message}
		SubmitError string
	}

	table struct {
		Columns []string
		Rows    [][]string
		Page    int
		Pages   int
		Total   int
		PrevURL string
		NextURL string
	}

	profileField struct {
		Label string
		Value string
	}
)

func newLoginForm(email string) *loginForm {
	return &loginForm{Email: email, Errors: map[string]string{}}
}

func (s *server) newPageData(title, current string, sess session.Session) pageData {
	data := pageData{
		Title:         title,
		AppName:       s.opts.AppName,
		Current:       current,
		Authenticated: sess.Authenticated,
	}
	if sess.Authenticated {
		role := sess.Role()
		data.Nav = guard.NavFor(role)
		data.RoleName = role.Name()
		data.DashboardPath = account.DashboardPath(role)
		data.DisplayName = sess.Account.Email
		if sess.Profile != nil {
			if name := sess.Profile.DisplayName(); name != "" {
				data.DisplayName = name
			}
		}
	}
	return data
}

// newTable lays a page of items out as rows; `name` comes first, ids are left out.
func newTable(p backend.Page, base *url.URL) *table {
	seen := make(map[string]bool)
	var cols []string
	for _, item := range p.Items {
		for key := range item {
			if seen[key] || key == "id" || key == "name" {
				continue
			}
			seen[key] = true
			cols = append(cols, key)
		}
	}
	sort.Strings(cols)
	for _, item := range p.Items {
		if _, ok := item["name"]; ok {
			cols = append([]string{"name"}, cols...)
			break
		}
	}

	t := &table{Page: p.Page, Pages: p.Pages(), Total: p.Total, Columns: make([]string, 0, len(cols))}
	for _, col := range cols {
		t.Columns = append(t.Columns, columnLabel(col))
	}
	for _, item := range p.Items {
		row := make([]string, 0, len(cols))
		for _, col := range cols {
			row = append(row, cellValue(item[col]))
		}
		t.Rows = append(t.Rows, row)
	}
	if p.HasPrev() {
		t.PrevURL = pageURL(base, p.Page-1)
	}
	if p.HasNext() {
		t.NextURL = pageURL(base, p.Page+1)
	}
	return t
}

func pageURL(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.RequestURI()
}

func profileFields(prof *account.Profile) []profileField {
	if prof == nil {
		return nil
	}
	keys := prof.Keys()
	flds := make([]profileField, 0, len(keys))
	for _, key := range keys {
		if val := prof.String(key); val != "" {
			flds = append(flds, profileField{Label: columnLabel(key), Value: val})
		}
	}
	return flds
}

// columnLabel turns `college_code` into `College code`.
func columnLabel(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func cellValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(val)
}
