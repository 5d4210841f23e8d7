package models

import "time"

type AuditEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	Level     string    `json:"level" gorm:"index"`
	Message   string    `json:"message"`
	Source    string    `json:"source" gorm:"index"`
	Admin     string    `json:"admin,omitempty" gorm:"index"`
	Data      string    `json:"data"`
}
