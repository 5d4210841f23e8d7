package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strings"

	"timeclock/backend/auth"
	"timeclock/backend/config"
	"timeclock/backend/database"
	"timeclock/backend/models"
	"timeclock/backend/store"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type adminView struct {
	ID                uint   `json:"id"`
	Username          string `json:"username"`
	Role              string `json:"role"`
	TwoFAEnabled      bool   `json:"twofa_enabled"`
	RecoveryCodesLeft int    `json:"recovery_codes_left"`
}

func ListAdmins(w http.ResponseWriter, r *http.Request) {
	var admins []models.Admin
	if err := database.DB.Order("username").Find(&admins).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	views := make([]adminView, 0, len(admins))
	for _, a := range admins {
		codes, _ := store.DecodeRecoveryCodes(a.RecoveryCodes)
		views = append(views, adminView{
			ID:                a.ID,
			Username:          a.Username,
			Role:              a.Role,
			TwoFAEnabled:      a.TwoFAEnabled,
			RecoveryCodesLeft: len(codes),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func CreateAdmin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	roleValue := r.FormValue("role")
	if roleValue == "" {
		roleValue = string(auth.RoleSuperAdmin)
	}

	if username == "" || password == "" {
		http.Error(w, "Username and password are required.", http.StatusBadRequest)
		return
	}
	role, err := auth.ParseRole(roleValue)
	if err != nil {
		http.Error(w, "Invalid role.", http.StatusBadRequest)
		return
	}

	var existing models.Admin
	if err := database.DB.Where("username = ?", username).First(&existing).Error; err == nil {
		http.Error(w, "Username already exists.", http.StatusConflict)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), config.C.Security.BcryptCost)
	if err != nil {
		slog.Error("admin creation failed: hash error", "source", "admins", "error", err.Error())
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	admin := models.Admin{Username: username, Password: string(hashed), Role: string(role)}
	if err := database.DB.Create(&admin).Error; err != nil {
		slog.Error("admin creation failed: db error", "source", "admins", "error", err.Error())
		http.Error(w, "Failed to create admin.", http.StatusInternalServerError)
		return
	}

	slog.Info("admin account created", "source", "admins", "admin", currentAdmin(r), "created", username, "role", string(role))
	writeJSON(w, http.StatusCreated, adminView{ID: admin.ID, Username: admin.Username, Role: admin.Role})
}

// UpdateAdmin changes the role and/or resets the password of an admin.
func UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminByPath(w, r)
	if !ok {
		return
	}

	updates := map[string]any{}
	if roleValue := r.FormValue("role"); roleValue != "" {
		role, err := auth.ParseRole(roleValue)
		if err != nil {
			http.Error(w, "Invalid role.", http.StatusBadRequest)
			return
		}
		updates["role"] = string(role)
	}
	if password := r.FormValue("password"); password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), config.C.Security.BcryptCost)
		if err != nil {
			http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
			return
		}
		updates["password"] = string(hashed)
	}
	if len(updates) == 0 {
		http.Error(w, "Nothing to update.", http.StatusBadRequest)
		return
	}

	if err := database.DB.Model(&admin).Updates(updates).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	slog.Info("admin account updated", "source", "admins", "admin", currentAdmin(r), "updated", admin.Username)
	w.WriteHeader(http.StatusNoContent)
}

func DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminByPath(w, r)
	if !ok {
		return
	}
	if admin.Username == currentAdmin(r) {
		http.Error(w, "You cannot delete your own account.", http.StatusBadRequest)
		return
	}
	if err := database.DB.Delete(&admin).Error; err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	slog.Info("admin account deleted", "source", "admins", "admin", currentAdmin(r), "deleted", admin.Username)
	w.WriteHeader(http.StatusNoContent)
}

// TwoFactorSetup provisions a fresh TOTP secret for the admin and returns it
// with a QR code. Nothing is persisted until the code is confirmed.
func TwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminByPath(w, r)
	if !ok {
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.C.Security.TOTPIssuer,
		AccountName: admin.Username,
	})
	if err != nil {
		slog.Error("failed to generate 2FA secret", "source", "admins", "error", err.Error())
		http.Error(w, "Failed to generate 2FA secret", http.StatusInternalServerError)
		return
	}

	qrCode, err := generateQRCode(key)
	if err != nil {
		slog.Error("failed to generate QR code", "source", "admins", "error", err.Error())
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":      key.Secret(),
		"otpauth_url": key.URL(),
		"qr_png":      qrCode,
	})
}

// TwoFactorEnable turns 2FA on after the admin proves possession of the
// secret by submitting a current code. The generated recovery codes are
// returned exactly once.
func TwoFactorEnable(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminByPath(w, r)
	if !ok {
		return
	}

	secret := r.FormValue("secret")
	code := r.FormValue("code")
	if secret == "" || !totp.Validate(code, secret) {
		slog.Warn("2FA enable failed: invalid code", "source", "admins", "target", admin.Username)
		http.Error(w, "Invalid code. Please try again.", http.StatusBadRequest)
		return
	}

	codes := auth.GenerateRecoveryCodes(config.C.Security.RecoveryCodeCount)
	encoded, err := store.EncodeRecoveryCodes(codes)
	if err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	updates := map[string]any{
		"two_fa_enabled": true,
		"two_fa_secret":  secret,
		"recovery_codes": encoded,
	}
	if err := database.DB.Model(&admin).Updates(updates).Error; err != nil {
		slog.Error("failed to enable 2FA", "source", "admins", "error", err.Error())
		http.Error(w, "Failed to enable 2FA", http.StatusInternalServerError)
		return
	}

	slog.Info("2FA enabled", "source", "admins", "admin", currentAdmin(r), "target", admin.Username)
	writeJSON(w, http.StatusOK, map[string]any{"recovery_codes": codes})
}

// TwoFactorDisable is the administrative override for an admin locked out of
// their second factor: clears the secret and any remaining recovery codes.
func TwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminByPath(w, r)
	if !ok {
		return
	}

	updates := map[string]any{
		"two_fa_enabled": false,
		"two_fa_secret":  "",
		"recovery_codes": "",
	}
	if err := database.DB.Model(&admin).Updates(updates).Error; err != nil {
		slog.Error("failed to disable 2FA", "source", "admins", "error", err.Error())
		http.Error(w, "Failed to disable 2FA", http.StatusInternalServerError)
		return
	}

	slog.Info("2FA disabled", "source", "admins", "admin", currentAdmin(r), "target", admin.Username)
	w.WriteHeader(http.StatusNoContent)
}

func adminByPath(w http.ResponseWriter, r *http.Request) (models.Admin, bool) {
	var admin models.Admin
	username := r.PathValue("username")
	err := database.DB.Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Admin not found.", http.StatusNotFound)
		return admin, false
	}
	if err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return admin, false
	}
	return admin, true
}

func currentAdmin(r *http.Request) string {
	return CurrentLoginSession(r).Username
}

// generateQRCode creates a base64-encoded PNG QR code for the TOTP key
func generateQRCode(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
