package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/pkg/enums"
)

// Courier is the rider profile consulted during claim eligibility checks.
type Courier struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Name      string        `gorm:"column:name;not null"`
	Vehicle   enums.Vehicle `gorm:"column:vehicle;type:text;not null"`
	Verified  bool          `gorm:"column:verified;not null;default:false"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
