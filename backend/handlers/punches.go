package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"timeclock/backend/database"
	"timeclock/backend/models"

	"gorm.io/gorm"
)

// ListPunches returns an employee's punches, optionally bounded by
// ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func ListPunches(w http.ResponseWriter, r *http.Request) {
	emp, ok := employeeByPath(w, r)
	if !ok {
		return
	}

	q := database.DB.Where("employee_id = ?", emp.ID).Order("date, time_in")
	if from := r.URL.Query().Get("from"); from != "" {
		q = q.Where("date >= ?", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		q = q.Where("date <= ?", to)
	}

	var punches []models.Punch
	if err := q.Find(&punches).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, punches)
}

type punchEdit struct {
	TimeIn     *string `json:"time_in"`     // RFC3339 or null to clear
	TimeOut    *string `json:"time_out"`
	LunchStart *string `json:"lunch_start"`
	LunchEnd   *string `json:"lunch_end"`
	Note       *string `json:"note"`
}

// UpdatePunch applies edited stamps to a punch and recomputes the total.
// Every changed field is recorded in the audit log with its old value.
func UpdatePunch(w http.ResponseWriter, r *http.Request) {
	punch, ok := punchByPath(w, r)
	if !ok {
		return
	}

	var edit punchEdit
	if err := decodeJSON(r, &edit); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	apply := func(field string, dst **time.Time, src *string) bool {
		if src == nil {
			return true
		}
		old := formatStamp(*dst)
		if *src == "" {
			*dst = nil
		} else {
			t, err := time.Parse(time.RFC3339, *src)
			if err != nil {
				return false
			}
			*dst = &t
		}
		slog.Info("punch field changed", "source", "punches", "admin", currentAdmin(r),
			"punch_id", punch.ID, "field", field, "old", old, "new", formatStamp(*dst))
		return true
	}

	if !apply("TimeIn", &punch.TimeIn, edit.TimeIn) ||
		!apply("TimeOut", &punch.TimeOut, edit.TimeOut) ||
		!apply("LunchStart", &punch.LunchStart, edit.LunchStart) ||
		!apply("LunchEnd", &punch.LunchEnd, edit.LunchEnd) {
		http.Error(w, "Invalid timestamp; use RFC3339.", http.StatusBadRequest)
		return
	}
	if edit.Note != nil {
		punch.Note = *edit.Note
	}
	punch.TotalHours = punch.ComputeTotalHours()

	if err := database.DB.Save(&punch).Error; err != nil {
		slog.Error("punch update failed", "source", "punches", "error", err.Error())
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, punch)
}

func DeletePunch(w http.ResponseWriter, r *http.Request) {
	punch, ok := punchByPath(w, r)
	if !ok {
		return
	}
	if err := database.DB.Delete(&punch).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	slog.Warn("punch deleted", "source", "punches", "admin", currentAdmin(r),
		"punch_id", punch.ID, "employee_id", punch.EmployeeID, "date", punch.Date)
	w.WriteHeader(http.StatusNoContent)
}

func punchByPath(w http.ResponseWriter, r *http.Request) (models.Punch, bool) {
	var punch models.Punch
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid punch ID.", http.StatusBadRequest)
		return punch, false
	}
	err = database.DB.First(&punch, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Punch not found.", http.StatusNotFound)
		return punch, false
	}
	if err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return punch, false
	}
	return punch, true
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return "NULL"
	}
	return t.Format(time.RFC3339)
}
