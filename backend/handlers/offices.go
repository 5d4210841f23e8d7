package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"timeclock/backend/database"
	"timeclock/backend/models"
)

func ListOffices(w http.ResponseWriter, r *http.Request) {
	var offices []models.Office
	if err := database.DB.Order("name").Find(&offices).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, offices)
}

func CreateOffice(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Office name is required.", http.StatusBadRequest)
		return
	}

	var existing models.Office
	if err := database.DB.Where("name = ?", name).First(&existing).Error; err == nil {
		http.Error(w, "Office already exists.", http.StatusConflict)
		return
	}

	office := models.Office{Name: name}
	if err := database.DB.Create(&office).Error; err != nil {
		http.Error(w, "Failed to create office.", http.StatusInternalServerError)
		return
	}

	slog.Info("office created", "source", "offices", "admin", currentAdmin(r), "office", name)
	writeJSON(w, http.StatusCreated, office)
}

// DeleteOffice removes an office. Employees keep their office string; the
// assignment simply stops matching a managed office.
func DeleteOffice(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	res := database.DB.Where("name = ?", name).Delete(&models.Office{})
	if res.Error != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "Office not found.", http.StatusNotFound)
		return
	}
	slog.Info("office removed", "source", "offices", "admin", currentAdmin(r), "office", name)
	w.WriteHeader(http.StatusNoContent)
}
