package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"timeclock/backend/database"
	"timeclock/backend/models"

	"gorm.io/gorm"
)

// ListEmployees returns active employees by default; ?archived=true returns
// the archive instead.
func ListEmployees(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "true"

	var employees []models.Employee
	q := database.DB.Where("archived = ?", archived).Order("last_name, first_name")
	if office := r.URL.Query().Get("office"); office != "" {
		q = q.Where("office = ?", office)
	}
	if err := q.Find(&employees).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func CreateEmployee(w http.ResponseWriter, r *http.Request) {
	emp := models.Employee{
		FirstName:          strings.TrimSpace(r.FormValue("first_name")),
		LastName:           strings.TrimSpace(r.FormValue("last_name")),
		TagID:              strings.TrimSpace(r.FormValue("tag_id")),
		Office:             strings.TrimSpace(r.FormValue("office")),
		ScheduledStartTime: strings.TrimSpace(r.FormValue("scheduled_start_time")),
	}
	if emp.FirstName == "" || emp.LastName == "" || emp.TagID == "" {
		http.Error(w, "First name, last name and tag ID are required.", http.StatusBadRequest)
		return
	}

	var existing models.Employee
	if err := database.DB.Where("tag_id = ?", emp.TagID).First(&existing).Error; err == nil {
		http.Error(w, "Tag ID already in use.", http.StatusConflict)
		return
	}

	if err := database.DB.Create(&emp).Error; err != nil {
		slog.Error("employee creation failed", "source", "employees", "error", err.Error())
		http.Error(w, "Failed to create employee.", http.StatusInternalServerError)
		return
	}

	slog.Info("employee created", "source", "employees", "admin", currentAdmin(r), "tag_id", emp.TagID)
	writeJSON(w, http.StatusCreated, emp)
}

// SetEmployeeArchived moves an employee into or out of the archive.
func SetEmployeeArchived(archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := employeeByPath(w, r)
		if !ok {
			return
		}
		if err := database.DB.Model(&emp).Update("archived", archived).Error; err != nil {
			http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
			return
		}
		slog.Info("employee archive state changed", "source", "employees",
			"admin", currentAdmin(r), "tag_id", emp.TagID, "archived", archived)
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteEmployee permanently removes an archived employee and their punches.
func DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	emp, ok := employeeByPath(w, r)
	if !ok {
		return
	}
	if !emp.Archived {
		http.Error(w, "Employee must be archived before permanent deletion.", http.StatusBadRequest)
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", emp.ID).Delete(&models.Punch{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&emp).Error
	})
	if err != nil {
		slog.Error("employee deletion failed", "source", "employees", "error", err.Error())
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	slog.Warn("employee permanently deleted", "source", "employees", "admin", currentAdmin(r), "tag_id", emp.TagID)
	w.WriteHeader(http.StatusNoContent)
}

func employeeByPath(w http.ResponseWriter, r *http.Request) (models.Employee, bool) {
	var emp models.Employee
	err := database.DB.Where("tag_id = ?", r.PathValue("tag")).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Employee not found.", http.StatusNotFound)
		return emp, false
	}
	if err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return emp, false
	}
	return emp, true
}
