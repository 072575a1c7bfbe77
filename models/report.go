package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportCompleted  ReportStatus = "completed"
	ReportInProgress ReportStatus = "in_progress"
	ReportDelayed    ReportStatus = "delayed"
	ReportHalted     ReportStatus = "halted"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportCompleted, ReportInProgress, ReportDelayed, ReportHalted:
		return true
	}
	return false
}

// Label is the human-readable status used in exports.
func (s ReportStatus) Label() string {
	switch s {
	case ReportCompleted:
		return "Completed"
	case ReportInProgress:
		return "In progress"
	case ReportDelayed:
		return "Delayed"
	case ReportHalted:
		return "Halted"
	}
	return string(s)
}

// NoAccident is the accidents value of a day without incidents.
const NoAccident = "None"

// SubActivity is one checklist entry of an activity.
type SubActivity struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// Activity is a named work item with its checklist.
type Activity struct {
	Name          string        `json:"name"`
	SubActivities []SubActivity `json:"sub_activities"`
}

// DailyReport is one day of work on one project. (date, project) is unique.
type DailyReport struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Date      Date      `gorm:"not null;uniqueIndex:idx_report_date_project" json:"date"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_report_date_project;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Weather       string                        `gorm:"size:255" json:"weather"`
	Activities    string                        `gorm:"type:text;not null" json:"activities"`
	ActivityItems datatypes.JSONSlice[Activity] `json:"activity_items"`
	Crew          string                        `gorm:"type:text" json:"crew"`
	Equipment     string                        `gorm:"type:text" json:"equipment"`
	Incidents     string                        `gorm:"type:text" json:"incidents"`
	Accidents     string                        `gorm:"type:text;default:'None'" json:"accidents"`
	NextDayPlan   string                        `gorm:"type:text" json:"next_day_plan"`
	Observations  string                        `gorm:"type:text" json:"observations"`

	Status       ReportStatus `gorm:"size:30;index" json:"status"`
	Productivity float64      `gorm:"type:decimal(5,1);default:0" json:"productivity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DailyReport) TableName() string {
	return "daily_reports"
}

func (r *DailyReport) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// HasAccident is true when the accidents field carries anything but the default.
func (r *DailyReport) HasAccident() bool {
	a := strings.TrimSpace(r.Accidents)
	return a != "" && !strings.EqualFold(a, NoAccident)
}

// Validate normalises defaults and rejects incomplete reports.
func (r *DailyReport) Validate() error {
	if r.Date.IsZero() {
		return ErrReportDateRequired
	}
	if r.ProjectID == uuid.Nil {
		return ErrReportProjectRequired
	}
	if strings.TrimSpace(r.Activities) == "" {
		return ErrActivitiesRequired
	}
	if r.Status == "" {
		r.Status = ReportInProgress
	}
	if !r.Status.Valid() {
		return ErrInvalidReportStatus
	}
	if strings.TrimSpace(r.Accidents) == "" {
		r.Accidents = NoAccident
	}
	if len(r.ActivityItems) > 0 {
		r.Productivity = ComputeProductivity(r.ActivityItems)
	}
	if r.Productivity < 0 || r.Productivity > 100 {
		return ErrInvalidProductivity
	}
	return nil
}

// ComputeProductivity returns done/total sub-activities as a percentage
// rounded to one decimal. Zero when there are no sub-activities.
func ComputeProductivity(activities []Activity) float64 {
	var done, total int
	for _, a := range activities {
		for _, s := range a.SubActivities {
			total++
			if s.Done {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}

// CrewBreakdown is the headcount form of the crew field.
type CrewBreakdown struct {
	Foremen    int  `json:"foremen"`
	Drivers    int  `json:"drivers"`
	Workers    int  `json:"workers"`
	Supervisor bool `json:"supervisor"`
	Inspector  bool `json:"inspector"`
}

// Describe renders the breakdown as the sentence stored on the report.
func (c CrewBreakdown) Describe() (string, error) {
	if c.Foremen < 0 || c.Drivers < 0 || c.Workers < 0 {
		return "", ErrNegativeCrew
	}
	s := fmt.Sprintf("%d foreman(s), %d driver(s), %d worker(s)", c.Foremen, c.Drivers, c.Workers)
	if c.Supervisor {
		s += ", site supervisor"
	}
	if c.Inspector {
		s += ", inspector"
	}
	return s, nil
}

// ReportFilter narrows report listings. Zero values mean "no constraint".
type ReportFilter struct {
	ProjectID uuid.UUID
	AuthorID  uuid.UUID
	From      Date
	To        Date
	Scope     *ProjectScope
	Limit     int
}
