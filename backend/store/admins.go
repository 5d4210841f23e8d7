// Package store adapts the admins table to the credential interface the
// login flow consumes.
package store

import (
	"crypto/subtle"
	"encoding/json"
	"errors"

	"timeclock/backend/auth"
	"timeclock/backend/models"

	"gorm.io/gorm"
)

type AdminStore struct {
	db *gorm.DB
}

func NewAdminStore(db *gorm.DB) *AdminStore {
	return &AdminStore{db: db}
}

// FindByUsername returns (nil, nil) when the account does not exist so the
// caller can treat absence exactly like a wrong password. A row carrying an
// unknown role is an error, not a silently denied login.
func (s *AdminStore) FindByUsername(username string) (*auth.Account, error) {
	var admin models.Admin
	err := s.db.Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	role, err := auth.ParseRole(admin.Role)
	if err != nil {
		return nil, err
	}

	codes, err := DecodeRecoveryCodes(admin.RecoveryCodes)
	if err != nil {
		return nil, err
	}

	return &auth.Account{
		Username:         admin.Username,
		PasswordHash:     admin.Password,
		Role:             role,
		TwoFactorEnabled: admin.TwoFAEnabled,
		TwoFactorSecret:  admin.TwoFASecret,
		RecoveryCodes:    codes,
	}, nil
}

func (s *AdminStore) UpdatePasswordHash(username, newHash string) error {
	return s.db.Model(&models.Admin{}).
		Where("username = ?", username).
		Update("password", newHash).Error
}

// ConsumeRecoveryCode removes one matching code from the account's list.
// The update is conditioned on the serialized list still holding the value
// that was read, so two attempts racing on the same code cannot both win:
// the loser's update matches zero rows and the code counts as invalid.
func (s *AdminStore) ConsumeRecoveryCode(username, code string) (bool, error) {
	var admin models.Admin
	err := s.db.Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	codes, err := DecodeRecoveryCodes(admin.RecoveryCodes)
	if err != nil {
		return false, err
	}

	match := -1
	for i, candidate := range codes {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return false, nil
	}

	remaining := make([]string, 0, len(codes)-1)
	remaining = append(remaining, codes[:match]...)
	remaining = append(remaining, codes[match+1:]...)
	newJSON, err := EncodeRecoveryCodes(remaining)
	if err != nil {
		return false, err
	}

	res := s.db.Model(&models.Admin{}).
		Where("username = ? AND recovery_codes = ?", username, admin.RecoveryCodes).
		Update("recovery_codes", newJSON)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecodeRecoveryCodes parses the stored JSON array; an empty column means no
// codes remain.
func DecodeRecoveryCodes(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func EncodeRecoveryCodes(codes []string) (string, error) {
	if codes == nil {
		codes = []string{}
	}
	b, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
