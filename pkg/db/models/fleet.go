package models

import (
	"time"

	"github.com/google/uuid"
)

// Fleet groups the devices a distributor operates; a fleet can be delegated
// to a single collection agent.
type Fleet struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string     `gorm:"column:name;not null;uniqueIndex"`
	DistributorID   uuid.UUID  `gorm:"column:distributor_id;type:uuid;not null;index"`
	AssignedAgentID *uuid.UUID `gorm:"column:assigned_agent_id;type:uuid"`
	Description     *string    `gorm:"column:description"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
