package utils

import (
	"strings"

	"p9e.in/sitelog/models"
)

// Permissions used by the route table, in "resource:action" form.
const (
	PermReportRead    = "report:read"
	PermReportWrite   = "report:write"
	PermPhotoRead     = "photo:read"
	PermPhotoWrite    = "photo:write"
	PermProjectRead   = "project:read"
	PermProjectManage = "project:manage"
	PermUserManage    = "user:manage"
	PermCostRead      = "cost:read"
	PermCostWrite     = "cost:write"
	PermMaterialRead  = "material:read"
	PermMaterialWrite = "material:write"
	PermAlertRead     = "alert:read"
	PermAlertWrite    = "alert:write"
	PermAlertUpdate   = "alert:update"
	PermExportRead    = "export:read"
	PermSystemManage  = "system:manage"
)

// RolePermissions is the fixed grant table. Reads are further narrowed
// per project by the user's access scope.
var RolePermissions = map[models.Role][]string{
	models.RoleAdmin:   {"*"},
	models.RoleFiscal:  {"report:*", "photo:*", PermProjectRead, "alert:*", PermMaterialRead, PermExportRead},
	models.RoleOwner:   {"*:read", PermAlertUpdate},
	models.RoleFinance: {"*:read", "cost:*", "material:*", PermAlertUpdate},
}

// MatchesPermission checks if a user permission matches the required permission.
// Supports wildcard patterns:
//
//   - "*:*:*" or "*" matches everything
//   - "report:*" matches all actions on reports
//   - "*:read" matches read on every resource
//   - "report:write" exact match
func MatchesPermission(userPerm, requiredPerm string) bool {
	if userPerm == requiredPerm {
		return true
	}
	if userPerm == "*:*:*" || userPerm == "*" {
		return true
	}

	userParts := strings.Split(userPerm, ":")
	reqParts := strings.Split(requiredPerm, ":")
	if len(userParts) < 2 || len(reqParts) < 2 {
		return userPerm == requiredPerm
	}

	resourceMatch := userParts[0] == "*" || userParts[0] == reqParts[0]
	actionMatch := userParts[1] == "*" || userParts[1] == reqParts[1]
	return resourceMatch && actionMatch
}

// HasPermission reports whether any grant of role covers required.
func HasPermission(role models.Role, required string) bool {
	for _, p := range RolePermissions[role] {
		if MatchesPermission(p, required) {
			return true
		}
	}
	return false
}

// MenuItem is one entry of the navigation a role is offered.
type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var menuLabels = map[string]string{
	"dashboard":         "Dashboard",
	"submit_report":     "Submit daily report",
	"upload_photos":     "Upload photos",
	"my_reports":        "My reports",
	"view_reports":      "View reports",
	"reports":           "Reports",
	"photo_gallery":     "Photo gallery",
	"alerts":            "Alerts",
	"financial_alerts":  "Financial alerts",
	"financial_reports": "Financial reports",
	"cost_control":      "Cost control",
	"manage_users":      "Manage users",
	"manage_projects":   "Manage projects",
	"settings":          "Settings",
}

var roleMenus = map[models.Role][]string{
	models.RoleAdmin:   {"dashboard", "submit_report", "manage_users", "manage_projects", "photo_gallery", "alerts", "reports", "settings"},
	models.RoleFiscal:  {"dashboard", "submit_report", "upload_photos", "alerts", "my_reports"},
	models.RoleOwner:   {"dashboard", "view_reports", "photo_gallery", "alerts", "financial_reports"},
	models.RoleFinance: {"dashboard", "cost_control", "reports", "financial_alerts"},
}

// MenuFor returns the menu of role in display order. Unknown roles get none.
func MenuFor(role models.Role) []MenuItem {
	keys := roleMenus[role]
	items := make([]MenuItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, MenuItem{Key: k, Label: menuLabels[k]})
	}
	return items
}
