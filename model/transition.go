package model

import (
	"time"

	"gorm.io/datatypes"
)

// TransitionLog records one agent state change.
type TransitionLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID     string         `gorm:"index:idx_transition_run;size:36;not null" json:"run_id"`
	AgentID   string         `gorm:"index:idx_transition_agent;size:36;not null" json:"agent_id"`
	FromState string         `gorm:"size:16;not null" json:"from_state"`
	ToState   string         `gorm:"size:16;not null" json:"to_state"`
	Reason    string         `gorm:"size:64" json:"reason"`
	Tick      uint64         `json:"tick"`
	SimTime   float64        `json:"sim_time"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"index:idx_transition_created;autoCreateTime:milli" json:"created_at"`
}

// NotificationLog records a contact notification (spotted, lost, killed).
type NotificationLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID     string    `gorm:"index:idx_notification_run;size:36;not null" json:"run_id"`
	AgentID   string    `gorm:"size:36;not null" json:"agent_id"`
	Topic     string    `gorm:"size:32;not null" json:"topic"`
	CreatedAt time.Time `gorm:"autoCreateTime:milli" json:"created_at"`
}
