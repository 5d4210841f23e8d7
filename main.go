package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"timeclock/backend/auth"
	"timeclock/backend/config"
	"timeclock/backend/database"
	"timeclock/backend/handlers"
	"timeclock/backend/logger"
	"timeclock/backend/middleware"
	"timeclock/backend/scheduler"
)

// Rate limiter for auth endpoints (10 requests per minute)
var authRateLimiter = middleware.NewRateLimiter(10, time.Minute)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize session store with configured secret and timeout
	if err := handlers.InitSession(); err != nil {
		log.Fatal("Failed to init session:", err)
	}

	if err := database.Init(); err != nil {
		log.Fatal("Failed to init database:", err)
	}

	// Initialize structured logging into the audit table
	slog.SetDefault(slog.New(logger.NewDBHandler(database.DB)))
	go logger.CleanupOldEntries(database.DB, config.C.Logs.Retention)

	// Wire the login flow
	handlers.InitAuth(database.DB)

	// Nightly sweep for forgotten clock-outs
	if config.C.AutoClockOut.Enabled {
		go scheduler.StartAutoClockOut(database.DB, config.C.AutoClockOut.Time)
	}

	slog.Info("server starting", "source", "main", "listen", config.C.Listen, "public_url", config.C.PublicURL)

	mux := http.NewServeMux()

	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Auth routes (public, rate limited)
	mux.HandleFunc("GET /admin/api/session", handlers.Session)
	mux.HandleFunc("POST /admin/api/login", authRateLimiter.LimitFunc(handlers.Login))
	mux.HandleFunc("POST /admin/api/2fa/verify", authRateLimiter.LimitFunc(handlers.VerifyTwoFactor))
	mux.HandleFunc("POST /admin/api/logout", handlers.Logout)

	// Admin account management (super admin only)
	mux.HandleFunc("GET /admin/api/admins", middleware.RequireCapability(auth.CapManageAdmins, handlers.ListAdmins))
	mux.HandleFunc("POST /admin/api/admins", middleware.RequireCapability(auth.CapManageAdmins, handlers.CreateAdmin))
	mux.HandleFunc("PUT /admin/api/admins/{username}", middleware.RequireCapability(auth.CapManageAdmins, handlers.UpdateAdmin))
	mux.HandleFunc("DELETE /admin/api/admins/{username}", middleware.RequireCapability(auth.CapManageAdmins, handlers.DeleteAdmin))
	mux.HandleFunc("POST /admin/api/admins/{username}/2fa/setup", middleware.RequireCapability(auth.CapManageAdmins, handlers.TwoFactorSetup))
	mux.HandleFunc("POST /admin/api/admins/{username}/2fa/enable", middleware.RequireCapability(auth.CapManageAdmins, handlers.TwoFactorEnable))
	mux.HandleFunc("POST /admin/api/admins/{username}/2fa/disable", middleware.RequireCapability(auth.CapManageAdmins, handlers.TwoFactorDisable))

	// Employee management
	mux.HandleFunc("GET /admin/api/employees", middleware.RequireCapability(auth.CapManageUsers, handlers.ListEmployees))
	mux.HandleFunc("POST /admin/api/employees", middleware.RequireCapability(auth.CapManageUsers, handlers.CreateEmployee))
	mux.HandleFunc("POST /admin/api/employees/{tag}/archive", middleware.RequireCapability(auth.CapManageUsers, handlers.SetEmployeeArchived(true)))
	mux.HandleFunc("POST /admin/api/employees/{tag}/unarchive", middleware.RequireCapability(auth.CapManageUsers, handlers.SetEmployeeArchived(false)))
	mux.HandleFunc("DELETE /admin/api/employees/{tag}", middleware.RequireCapability(auth.CapManageUsers, handlers.DeleteEmployee))

	// Office management
	mux.HandleFunc("GET /admin/api/offices", middleware.RequireCapability(auth.CapManageOffices, handlers.ListOffices))
	mux.HandleFunc("POST /admin/api/offices", middleware.RequireCapability(auth.CapManageOffices, handlers.CreateOffice))
	mux.HandleFunc("DELETE /admin/api/offices/{name}", middleware.RequireCapability(auth.CapManageOffices, handlers.DeleteOffice))

	// Punch administration
	mux.HandleFunc("GET /admin/api/employees/{tag}/punches", middleware.RequireCapability(auth.CapViewReports, handlers.ListPunches))
	mux.HandleFunc("PUT /admin/api/punches/{id}", middleware.RequireCapability(auth.CapEditTimesheets, handlers.UpdatePunch))
	mux.HandleFunc("DELETE /admin/api/punches/{id}", middleware.RequireCapability(auth.CapEditTimesheets, handlers.DeletePunch))

	// Audit log
	mux.HandleFunc("GET /admin/api/audit", middleware.RequireCapability(auth.CapViewDashboard, handlers.GetAuditLog))
	mux.HandleFunc("GET /admin/api/audit/sources", middleware.RequireCapability(auth.CapViewDashboard, handlers.GetAuditSources))
	mux.HandleFunc("DELETE /admin/api/audit", middleware.RequireCapability(auth.CapManageAdmins, handlers.DeleteAuditEntries))

	// Wrap all routes with security headers
	handler := middleware.SecurityHeaders(mux)

	fmt.Printf("Server running at %s (public: %s)\n", config.C.Listen, config.C.PublicURL)
	if config.C.TLS.Enabled {
		slog.Info("starting server with TLS", "source", "main")
		log.Fatal(http.ListenAndServeTLS(config.C.Listen, config.C.TLS.Cert, config.C.TLS.Key, handler))
	} else {
		log.Fatal(http.ListenAndServe(config.C.Listen, handler))
	}
}
