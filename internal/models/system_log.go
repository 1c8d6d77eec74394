package models

import (
	"time"
)

// SystemLog represents a record in system_logs table
type SystemLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ProjectID  uint      `gorm:"column:project_id;default:0" json:"project_id"`
	Level      string    `gorm:"column:level;size:10;not null" json:"level"` // DEBUG, INFO, WARN, ERROR, FATAL
	Message    string    `gorm:"column:message;type:text;not null" json:"message"`
	Module     string    `gorm:"column:module;size:100" json:"module"`
	ErrorStack string    `gorm:"column:error_stack;type:text" json:"error_stack"`
	Meta       JSONMap   `gorm:"column:meta;type:jsonb" json:"meta"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}

// StuckProject is a row of the stuck_projects view: projects whose tick
// steps failed, with the latest failure.
type StuckProject struct {
	ProjectID   uint      `gorm:"column:project_id" json:"project_id"`
	Failures    int64     `gorm:"column:failures" json:"failures"`
	LastStep    string    `gorm:"column:last_step" json:"last_step"`
	LastError   string    `gorm:"column:last_error" json:"last_error"`
	LastFailure time.Time `gorm:"column:last_failure" json:"last_failure"`
}

func (StuckProject) TableName() string {
	return "stuck_projects"
}
