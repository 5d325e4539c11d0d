package dto

import (
	"time"

	"golang-watchlist/internal/model"
)

type CreateStockRequest struct {
	Symbol      string   `json:"symbol" validate:"required,alphanum,min=4,max=10"`
	SeedPrice   float64  `json:"seed_price" validate:"required,gt=0"`
	TargetPrice *float64 `json:"target_price" validate:"omitempty,gt=0"`
}

type UpdateStockRequest struct {
	CurrentPrice     *float64 `json:"current_price" validate:"omitempty,gt=0"`
	TargetPrice      *float64 `json:"target_price" validate:"omitempty,gt=0"`
	DistanceNegative *float64 `json:"distance_negative"`
	DistancePositive *float64 `json:"distance_positive"`
	ReviewState      *string  `json:"review_state" validate:"omitempty,oneof=compra venda"`
}

type ToggleChecklistRequest struct {
	Flag  string `json:"flag" validate:"required"`
	Value bool   `json:"value"`
}

// ChecklistToggle is a single-flag edit: exactly one flag changes, every
// other flag is carried from the base record.
type ChecklistToggle struct {
	Flag  string
	Value bool
}

// StockEdit is the partial, user-originated half of a merge. A nil pointer
// means "not supplied, keep the base value" — field groups are independently
// settable and never clear each other.
type StockEdit struct {
	Symbol           string
	CPF              string
	CurrentPrice     *float64 // manual override from the edit flow
	TargetPrice      *float64
	DistanceNegative *float64
	DistancePositive *float64
	ReviewState      *model.ReviewState
	LastCheckedAt    *time.Time
	Toggle           *ChecklistToggle
}
