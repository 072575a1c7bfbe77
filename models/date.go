package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used on the wire and in the database.
const DateLayout = "2006-01-02"

// Date is a calendar day without a clock component. It marshals as
// "2006-01-02" in JSON and is stored the same way so that range filters
// compare lexically on every driver.
type Date time.Time

// NewDate truncates t to midnight UTC of its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate accepts "2006-01-02" as well as full RFC3339 timestamps.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDate(t), nil
	}
	const layoutNoZone = "2006-01-02T15:04:05"
	t, err := time.Parse(layoutNoZone, s)
	if err != nil {
		return Date{}, fmt.Errorf("models.ParseDate: cannot parse %q: %w", s, err)
	}
	return NewDate(t), nil
}

func (d Date) Time() time.Time { return time.Time(d) }

func (d Date) IsZero() bool { return time.Time(d).IsZero() }

func (d Date) String() string { return time.Time(d).Format(DateLayout) }

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date { return Date(time.Time(d).AddDate(0, 0, n)) }

func (d Date) Before(o Date) bool { return time.Time(d).Before(time.Time(o)) }

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner. SQLite hands back either text or a
// time.Time depending on the declared column type; Postgres returns time.Time.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("models.Date.Scan: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return fmt.Errorf("models.Date.Scan: parse %q", s)
}

// GormDataType keeps the column declared as a date on every dialect.
func (Date) GormDataType() string { return "date" }
