package employee

import (
	"fmt"
	"time"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/employee/entity"
)

// Age returns whole years between birth and now. A missing birth date, or
// one after now, yields 0.
func Age(birth *entity.Date, now time.Time) int {
	if birth == nil {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Tenure is an elapsed calendar duration.
type Tenure struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

func (t Tenure) String() string {
	return fmt.Sprintf("%d years, %d months, %d days", t.Years, t.Months, t.Days)
}

// TenureSince subtracts calendar components of start from now. A negative day
// delta borrows a month, counted as the days since the same day-of-month one
// month earlier (clamped to that month's last day); a negative month delta
// borrows a year. Start dates after now clamp to zero. ok is false when start
// is absent.
func TenureSince(start *entity.Date, now time.Time) (t Tenure, ok bool) {
	if start == nil {
		return Tenure{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	if from.After(today) {
		return Tenure{}, true
	}

	years := today.Year() - from.Year()
	months := int(today.Month()) - int(from.Month())
	days := today.Day() - from.Day()

	if days < 0 {
		months--
		anchor := addMonthsClamped(from, years*12+months)
		days = int(today.Sub(anchor).Hours() / 24)
	}
	if months < 0 {
		years--
		months += 12
	}
	return Tenure{Years: years, Months: months, Days: days}, true
}

// addMonthsClamped moves d forward n months, keeping the day-of-month unless
// the target month is shorter.
func addMonthsClamped(d time.Time, n int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// TenureString renders TenureSince, or "" when start is absent.
func TenureString(start *entity.Date, now time.Time) string {
	t, ok := TenureSince(start, now)
	if !ok {
		return ""
	}
	return t.String()
}

// View is the display-ready employee: stored columns plus derived values.
type View struct {
	entity.Employee
	Age            int    `json:"age"`
	TimeInPosition string `json:"time_in_position"`
	YearsAtStation string `json:"years_at_station"`
}

func NewView(e entity.Employee, now time.Time) View {
	return View{
		Employee:       e,
		Age:            Age(e.DateOfBirth, now),
		TimeInPosition: TenureString(e.DateOfPromotion, now),
		YearsAtStation: TenureString(e.DateReportedToStation, now),
	}
}

func NewViews(rows []entity.Employee, now time.Time) []View {
	out := make([]View, 0, len(rows))
	for _, e := range rows {
		out = append(out, NewView(e, now))
	}
	return out
}
