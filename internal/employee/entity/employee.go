package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Employee is one row of the staff return: post accounting, classification,
// personal details, career dates and location.
type Employee struct {
	ID int64 `db:"id" json:"id"`

	EstablishedPosts *int64 `db:"established_posts" json:"established_posts"`
	FilledPosts      *int64 `db:"filled_posts" json:"filled_posts"`
	VacantPosts      *int64 `db:"vacant_posts" json:"vacant_posts"`

	Grade        *string `db:"grade" json:"grade"`
	PositionName *string `db:"position_name" json:"position_name"`

	Name          string  `db:"name" json:"name"`
	EmpNumber     *string `db:"emp_number" json:"emp_number"`
	Gender        *string `db:"gender" json:"gender"`
	Qualification *string `db:"qualification" json:"qualification"`
	DateOfBirth   *Date   `db:"date_of_birth" json:"date_of_birth"`

	DateOfFirstAppointment *Date `db:"date_of_first_appointment" json:"date_of_first_appointment"`
	DateOfPromotion        *Date `db:"date_of_promotion" json:"date_of_promotion"`
	DateReportedToStation  *Date `db:"date_reported_to_station" json:"date_reported_to_station"`

	PreviousStation *string `db:"previous_station" json:"previous_station"`
	DutyStation     *string `db:"duty_station" json:"duty_station"`
	District        *string `db:"district" json:"district"`
	CostCenter      *string `db:"cost_center" json:"cost_center"`
	Vote            *string `db:"vote" json:"vote"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RecomputeVacant derives vacant posts from established and filled when
// both are known. Otherwise the stored value is left as entered.
func (e *Employee) RecomputeVacant() {
	if e.EstablishedPosts == nil || e.FilledPosts == nil {
		return
	}
	v := *e.EstablishedPosts - *e.FilledPosts
	e.VacantPosts = &v
}

// EmployeeInput is the writable field set accepted from clients. Only the
// fields listed here can ever reach an INSERT or UPDATE.
type EmployeeInput struct {
	EstablishedPosts Optional[int64] `json:"established_posts"`
	FilledPosts      Optional[int64] `json:"filled_posts"`
	VacantPosts      Optional[int64] `json:"vacant_posts"`

	Grade        Optional[string] `json:"grade"`
	PositionName Optional[string] `json:"position_name"`

	Name          Optional[string] `json:"name"`
	EmpNumber     Optional[string] `json:"emp_number"`
	Gender        Optional[string] `json:"gender"`
	Qualification Optional[string] `json:"qualification"`
	DateOfBirth   Optional[Date]   `json:"date_of_birth"`

	DateOfFirstAppointment Optional[Date] `json:"date_of_first_appointment"`
	DateOfPromotion        Optional[Date] `json:"date_of_promotion"`
	DateReportedToStation  Optional[Date] `json:"date_reported_to_station"`

	PreviousStation Optional[string] `json:"previous_station"`
	DutyStation     Optional[string] `json:"duty_station"`
	District        Optional[string] `json:"district"`
	CostCenter      Optional[string] `json:"cost_center"`
	Vote            Optional[string] `json:"vote"`
}

// Validate checks the supplied fields. When creating, name is mandatory.
func (in EmployeeInput) Validate(creating bool) error {
	if creating && (!in.Name.Set || in.Name.Value == nil) {
		return fmt.Errorf("name is required")
	}
	if in.Name.Set {
		if in.Name.Value == nil {
			return fmt.Errorf("name cannot be null")
		}
		n := utf8.RuneCountInString(strings.TrimSpace(*in.Name.Value))
		if n < 1 || n > 255 {
			return fmt.Errorf("name length must be in range 1..255")
		}
	}
	for field, o := range map[string]Optional[int64]{
		"established_posts": in.EstablishedPosts,
		"filled_posts":      in.FilledPosts,
	} {
		if o.Value != nil && *o.Value < 0 {
			return fmt.Errorf("%s must not be negative", field)
		}
	}
	return nil
}

// Apply merges the supplied fields into e and recomputes vacant posts.
func (in EmployeeInput) Apply(e *Employee) {
	in.EstablishedPosts.apply(&e.EstablishedPosts)
	in.FilledPosts.apply(&e.FilledPosts)
	in.VacantPosts.apply(&e.VacantPosts)
	in.Grade.apply(&e.Grade)
	in.PositionName.apply(&e.PositionName)
	if in.Name.Set && in.Name.Value != nil {
		e.Name = strings.TrimSpace(*in.Name.Value)
	}
	in.EmpNumber.apply(&e.EmpNumber)
	in.Gender.apply(&e.Gender)
	in.Qualification.apply(&e.Qualification)
	in.DateOfBirth.apply(&e.DateOfBirth)
	in.DateOfFirstAppointment.apply(&e.DateOfFirstAppointment)
	in.DateOfPromotion.apply(&e.DateOfPromotion)
	in.DateReportedToStation.apply(&e.DateReportedToStation)
	in.PreviousStation.apply(&e.PreviousStation)
	in.DutyStation.apply(&e.DutyStation)
	in.District.apply(&e.District)
	in.CostCenter.apply(&e.CostCenter)
	in.Vote.apply(&e.Vote)
	e.RecomputeVacant()
}

// StringOrEmpty dereferences an optional text column.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
