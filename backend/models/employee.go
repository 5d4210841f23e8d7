package models

import "gorm.io/gorm"

type Employee struct {
	gorm.Model
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	TagID              string `json:"tag_id" gorm:"uniqueIndex"` // badge identifier
	Office             string `json:"office"`
	ClockStatus        bool   `json:"clock_status" gorm:"default:false"`
	ScheduledStartTime string `json:"scheduled_start_time"`
	Archived           bool   `json:"archived" gorm:"default:false;index"`
}

type Office struct {
	gorm.Model
	Name string `json:"name" gorm:"uniqueIndex"`
}
