package handlers

import (
	"net/http"
	"strconv"

	"timeclock/backend/database"
	"timeclock/backend/models"
)

type AuditResponse struct {
	Entries []models.AuditEntry `json:"entries"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

func GetAuditLog(w http.ResponseWriter, r *http.Request) {
	var entries []models.AuditEntry
	q := database.DB.Order("created_at DESC")

	// Pagination
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	// Filters
	if level := r.URL.Query().Get("level"); level != "" {
		q = q.Where("level = ?", level)
	}
	if source := r.URL.Query().Get("source"); source != "" {
		q = q.Where("source = ?", source)
	}
	if admin := r.URL.Query().Get("admin"); admin != "" {
		q = q.Where("admin = ?", admin)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		q = q.Where("message LIKE ? OR data LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	// Count total
	var total int64
	q.Model(&models.AuditEntry{}).Count(&total)

	// Apply pagination
	offset := (page - 1) * perPage
	q.Offset(offset).Limit(perPage).Find(&entries)

	writeJSON(w, http.StatusOK, AuditResponse{
		Entries: entries,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

func GetAuditSources(w http.ResponseWriter, r *http.Request) {
	var sources []string
	database.DB.Model(&models.AuditEntry{}).Distinct("source").Where("source != ''").Pluck("source", &sources)
	writeJSON(w, http.StatusOK, sources)
}

type bulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

func DeleteAuditEntries(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "No IDs provided", http.StatusBadRequest)
		return
	}

	result := database.DB.Delete(&models.AuditEntry{}, req.IDs)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": result.RowsAffected})
}
