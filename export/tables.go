// Package export renders reports and datasets as PDF, XLSX, CSV-zip and JSON.
package export

import (
	"fmt"
	"strings"
	"time"

	"p9e.in/sitelog/models"
)

// Column is a dataset field and its header label.
type Column struct {
	Key   string
	Label string
}

// Table is a named dataset: one sheet, one CSV file or one JSON array.
type Table struct {
	Name    string
	Columns []Column
	Rows    []map[string]interface{}
}

// Dataset names accepted by the export endpoint.
const (
	DatasetReports  = "reports"
	DatasetProjects = "projects"
	DatasetUsers    = "users"
	DatasetCosts    = "costs"
)

var Datasets = []string{DatasetReports, DatasetProjects, DatasetUsers, DatasetCosts}

func ReportsTable(reports []models.DailyReport) Table {
	t := Table{
		Name: DatasetReports,
		Columns: []Column{
			{"id", "ID"}, {"date", "Date"}, {"project_id", "Project ID"}, {"project_name", "Project"},
			{"author_id", "Author ID"}, {"author_name", "Author"}, {"weather", "Weather"},
			{"activities", "Activities"}, {"crew", "Crew"}, {"equipment", "Equipment"},
			{"incidents", "Incidents"}, {"accidents", "Accidents"}, {"next_day_plan", "Next day plan"},
			{"status", "Status"}, {"productivity", "Productivity (%)"}, {"observations", "Observations"},
		},
		Rows: make([]map[string]interface{}, 0, len(reports)),
	}
	for _, r := range reports {
		row := map[string]interface{}{
			"id":            r.ID.String(),
			"date":          r.Date.String(),
			"project_id":    r.ProjectID.String(),
			"project_name":  "",
			"author_id":     r.AuthorID.String(),
			"author_name":   "",
			"weather":       r.Weather,
			"activities":    r.Activities,
			"crew":          r.Crew,
			"equipment":     r.Equipment,
			"incidents":     r.Incidents,
			"accidents":     r.Accidents,
			"next_day_plan": r.NextDayPlan,
			"status":        string(r.Status),
			"productivity":  r.Productivity,
			"observations":  r.Observations,
		}
		if r.Project != nil {
			row["project_name"] = r.Project.Name
		}
		if r.Author != nil {
			row["author_name"] = r.Author.Name
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func ProjectsTable(projects []models.Project) Table {
	t := Table{
		Name: DatasetProjects,
		Columns: []Column{
			{"id", "ID"}, {"name", "Name"}, {"description", "Description"}, {"location", "Location"},
			{"total_budget", "Total budget"}, {"currency", "Currency"}, {"start_date", "Start date"},
			{"end_date", "Planned end date"}, {"status", "Status"}, {"responsible_id", "Responsible ID"},
			{"responsible_name", "Responsible"},
		},
		Rows: make([]map[string]interface{}, 0, len(projects)),
	}
	for _, p := range projects {
		row := map[string]interface{}{
			"id":               p.ID.String(),
			"name":             p.Name,
			"description":      p.Description,
			"location":         p.Location,
			"total_budget":     p.TotalBudget,
			"currency":         p.Currency,
			"start_date":       dateString(p.StartDate),
			"end_date":         dateString(p.EndDate),
			"status":           string(p.Status),
			"responsible_id":   "",
			"responsible_name": "",
		}
		if p.ResponsibleID != nil {
			row["responsible_id"] = p.ResponsibleID.String()
		}
		if p.Responsible != nil {
			row["responsible_name"] = p.Responsible.Name
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// UsersTable never includes password hashes.
func UsersTable(users []models.User) Table {
	t := Table{
		Name: DatasetUsers,
		Columns: []Column{
			{"id", "ID"}, {"username", "Username"}, {"name", "Name"}, {"email", "Email"},
			{"role", "Role"}, {"phone", "Phone"}, {"is_active", "Active"},
		},
		Rows: make([]map[string]interface{}, 0, len(users)),
	}
	for _, u := range users {
		t.Rows = append(t.Rows, map[string]interface{}{
			"id":        u.ID.String(),
			"username":  u.Username,
			"name":      u.Name,
			"email":     u.Email,
			"role":      string(u.Role),
			"phone":     u.Phone,
			"is_active": u.IsActive,
		})
	}
	return t
}

func CostsTable(costs []models.Cost) Table {
	t := Table{
		Name: DatasetCosts,
		Columns: []Column{
			{"id", "ID"}, {"date", "Date"}, {"project_id", "Project ID"}, {"category", "Category"},
			{"description", "Description"}, {"amount", "Amount"},
		},
		Rows: make([]map[string]interface{}, 0, len(costs)),
	}
	for _, c := range costs {
		t.Rows = append(t.Rows, map[string]interface{}{
			"id":          c.ID.String(),
			"date":        c.Date.String(),
			"project_id":  c.ProjectID.String(),
			"category":    string(c.Category),
			"description": c.Description,
			"amount":      c.Amount,
		})
	}
	return t
}

func dateString(d *models.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.String()
}

// Filename builds "<prefix>_<timestamp>.<ext>" safe for Content-Disposition.
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(prefix), now.Format("20060102_150405"), ext)
}

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(filename)
}
