package models

import (
	"time"

	"gorm.io/gorm"
)

type Punch struct {
	gorm.Model
	EmployeeID uint       `json:"employee_id" gorm:"index"`
	Employee   *Employee  `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	Date       string     `json:"date" gorm:"index"` // YYYY-MM-DD
	TimeIn     *time.Time `json:"time_in"`
	TimeOut    *time.Time `json:"time_out"`
	LunchStart *time.Time `json:"lunch_start"`
	LunchEnd   *time.Time `json:"lunch_end"`
	TotalHours *float64   `json:"total_hours"`
	Note       string     `json:"note"`
}

// ComputeTotalHours returns the worked hours between clock in and clock out,
// minus the lunch break when both lunch stamps are present. Returns nil when
// the punch is still open.
func (p *Punch) ComputeTotalHours() *float64 {
	if p.TimeIn == nil || p.TimeOut == nil {
		return nil
	}
	total := p.TimeOut.Sub(*p.TimeIn)
	if total <= 0 {
		zero := 0.0
		return &zero
	}
	if p.LunchStart != nil && p.LunchEnd != nil && p.LunchEnd.After(*p.LunchStart) {
		total -= p.LunchEnd.Sub(*p.LunchStart)
	}
	hours := float64(int(total.Hours()*100+0.5)) / 100
	return &hours
}
