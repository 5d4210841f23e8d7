package models

import "gorm.io/gorm"

type Admin struct {
	gorm.Model
	Username      string `json:"username" gorm:"uniqueIndex"`
	Password      string `json:"-"` // hashed, never serialize
	Role          string `json:"role"`
	TwoFAEnabled  bool   `json:"twofa_enabled" gorm:"default:false"`
	TwoFASecret   string `json:"-"` // TOTP secret, never serialize
	RecoveryCodes string `json:"-"` // JSON array of unused single-use codes
}
