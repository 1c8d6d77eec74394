package models

import (
	"time"
)

// Project lifecycle states as seen by the read model
const (
	ProjectStatusListed    = "listed"
	ProjectStatusOngoing   = "ongoing"
	ProjectStatusSucceeded = "succeeded"
	ProjectStatusFailed    = "failed"
)

// ProjectRecord is the read-model row of a campaign. It is rebuilt from
// engine events and never written by the API.
type ProjectRecord struct {
	ProjectID           uint32    `gorm:"column:project_id;primaryKey;autoIncrement:false" json:"project_id"`
	Owner               string    `gorm:"column:owner;size:64;not null;index" json:"owner"`
	Status              string    `gorm:"column:status;size:16;not null;default:'listed';index" json:"status"`
	Price               uint64    `gorm:"column:price;not null" json:"price"`
	Duration            uint32    `gorm:"column:duration;not null" json:"duration"`
	Milestones          uint32    `gorm:"column:milestones;not null" json:"milestones"`
	RemainingMilestones uint32    `gorm:"column:remaining_milestones;not null" json:"remaining_milestones"`
	NftTypes            uint32    `gorm:"column:nft_types;not null" json:"nft_types"`
	ProjectBalance      uint64    `gorm:"column:project_balance;default:0" json:"project_balance"`
	BondingBalance      uint64    `gorm:"column:bonding_balance;default:0" json:"bonding_balance"`
	PaidOut             uint64    `gorm:"column:paid_out;default:0" json:"paid_out"`
	Refunded            uint64    `gorm:"column:refunded;default:0" json:"refunded"`
	Strikes             uint8     `gorm:"column:strikes;default:0" json:"strikes"`
	RemainingPercentage uint32    `gorm:"column:remaining_percentage;default:0" json:"remaining_percentage"`
	LaunchedAt          *uint64   `gorm:"column:launched_at" json:"launched_at,omitempty"`
	EndedAt             *uint64   `gorm:"column:ended_at" json:"ended_at,omitempty"`
	LastHeight          uint64    `gorm:"column:last_height;default:0" json:"last_height"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ProjectRecord) TableName() string {
	return "community_projects"
}

// ProjectEvent is one delivered engine event, kept for audit and replay.
// MessageID makes redelivered messages idempotent.
type ProjectEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	MessageID string    `gorm:"column:message_id;size:36;not null;uniqueIndex" json:"message_id"`
	ProjectID uint32    `gorm:"column:project_id;not null;index" json:"project_id"`
	Name      string    `gorm:"column:name;size:64;not null" json:"name"`
	Height    uint64    `gorm:"column:height;not null" json:"height"`
	Payload   JSONMap   `gorm:"column:payload;type:jsonb" json:"payload"`
	EmittedAt time.Time `gorm:"column:emitted_at" json:"emitted_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ProjectEvent) TableName() string {
	return "project_events"
}
