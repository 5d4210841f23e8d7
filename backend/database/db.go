package database

import (
	"timeclock/backend/config"
	"timeclock/backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() error {
	var err error
	DB, err = gorm.Open(sqlite.Open(config.C.DatabasePath), &gorm.Config{})
	if err != nil {
		return err
	}
	return DB.AutoMigrate(
		&models.Admin{},
		&models.Employee{},
		&models.Office{},
		&models.Punch{},
		&models.AuditEntry{},
	)
}
