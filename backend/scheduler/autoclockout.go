// Package scheduler runs the nightly sweep that closes punches employees
// forgot to clock out of.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"timeclock/backend/models"

	"gorm.io/gorm"
)

const autoClockOutNote = "Auto-clocked out - forgot to clock out"

// RunAutoClockOut closes every punch from before today that has a clock-in
// but no clock-out, stamping the configured end-of-day time (HH:MM) on the
// punch's own date and recomputing total hours. Each punch is updated in a
// single write. Returns the number of punches closed.
func RunAutoClockOut(db *gorm.DB, endOfDay string) (int, error) {
	cutoff, err := time.Parse("15:04", endOfDay)
	if err != nil {
		return 0, fmt.Errorf("invalid auto clock-out time %q: %w", endOfDay, err)
	}

	today := time.Now().Format("2006-01-02")
	var open []models.Punch
	err = db.Where("time_in IS NOT NULL AND time_out IS NULL AND date < ?", today).Find(&open).Error
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, punch := range open {
		day, err := time.ParseInLocation("2006-01-02", punch.Date, time.Local)
		if err != nil {
			slog.Error("auto clock-out: bad punch date", "source", "scheduler",
				"punch_id", punch.ID, "date", punch.Date)
			continue
		}
		out := time.Date(day.Year(), day.Month(), day.Day(),
			cutoff.Hour(), cutoff.Minute(), 0, 0, time.Local)

		punch.TimeOut = &out
		punch.Note = autoClockOutNote
		punch.TotalHours = punch.ComputeTotalHours()

		if err := db.Model(&models.Punch{}).Where("id = ?", punch.ID).Updates(map[string]any{
			"time_out":    punch.TimeOut,
			"note":        punch.Note,
			"total_hours": punch.TotalHours,
		}).Error; err != nil {
			slog.Error("auto clock-out: update failed", "source", "scheduler",
				"punch_id", punch.ID, "error", err.Error())
			continue
		}

		slog.Info("punch auto-closed", "source", "scheduler",
			"punch_id", punch.ID, "employee_id", punch.EmployeeID, "date", punch.Date)
		closed++
	}
	return closed, nil
}

// StartAutoClockOut runs the sweep shortly after every midnight.
func StartAutoClockOut(db *gorm.DB, endOfDay string) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 5, 0, 0, time.Local).AddDate(0, 0, 1)
		time.Sleep(time.Until(next))

		if n, err := RunAutoClockOut(db, endOfDay); err != nil {
			slog.Error("auto clock-out sweep failed", "source", "scheduler", "error", err.Error())
		} else if n > 0 {
			slog.Info("auto clock-out sweep finished", "source", "scheduler", "closed", n)
		}
	}
}
