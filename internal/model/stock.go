package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

var ErrUnknownChecklistFlag = errors.New("unknown checklist flag")

type ReviewState string

const (
	ReviewStateCompra ReviewState = "compra"
	ReviewStateVenda  ReviewState = "venda"
)

// Checklist is the fixed set of ten due-diligence flags kept per stock.
// Each flag is independently toggleable; there is no ordering semantics
// beyond display.
type Checklist struct {
	Insider           bool `json:"insider"`
	Volume            bool `json:"volume"`
	OBV               bool `json:"obv"`
	ADX               bool `json:"adx"`
	MargemLiquida     bool `json:"margemLiquida"`
	DividendYield     bool `json:"dividendYield"`
	MagicFormula      bool `json:"magicFormula"`
	DistanciaMedia200 bool `json:"distanciaMedia200"`
	Upside            bool `json:"upside"`
	PLAverage         bool `json:"plAverage"`
}

// ChecklistFlags lists the JSON names of every checklist flag, in display order.
var ChecklistFlags = []string{
	"insider",
	"volume",
	"obv",
	"adx",
	"margemLiquida",
	"dividendYield",
	"magicFormula",
	"distanciaMedia200",
	"upside",
	"plAverage",
}

func (c *Checklist) flag(name string) (*bool, error) {
	switch name {
	case "insider":
		return &c.Insider, nil
	case "volume":
		return &c.Volume, nil
	case "obv":
		return &c.OBV, nil
	case "adx":
		return &c.ADX, nil
	case "margemLiquida":
		return &c.MargemLiquida, nil
	case "dividendYield":
		return &c.DividendYield, nil
	case "magicFormula":
		return &c.MagicFormula, nil
	case "distanciaMedia200":
		return &c.DistanciaMedia200, nil
	case "upside":
		return &c.Upside, nil
	case "plAverage":
		return &c.PLAverage, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChecklistFlag, name)
	}
}

// Set toggles a single flag by its JSON name.
func (c *Checklist) Set(name string, value bool) error {
	f, err := c.flag(name)
	if err != nil {
		return err
	}
	*f = value
	return nil
}

// Get reads a single flag by its JSON name.
func (c *Checklist) Get(name string) (bool, error) {
	f, err := c.flag(name)
	if err != nil {
		return false, err
	}
	return *f, nil
}

// Count returns the number of flags set true.
func (c Checklist) Count() int {
	count := 0
	for _, name := range ChecklistFlags {
		if v, _ := c.Get(name); v {
			count++
		}
	}
	return count
}

// DailyStock is one watched ticker within a CPF partition. Symbol and CPF
// form the record identity and never change after creation. Score, Upside
// and MovingAveragePct are derived columns, rewritten on every persisted
// write so they are never stale.
type DailyStock struct {
	ID               uint                          `gorm:"primaryKey" json:"id"`
	Symbol           string                        `gorm:"not null;uniqueIndex:idx_daily_stocks_cpf_symbol" json:"symbol"`
	CPF              string                        `gorm:"column:cpf;not null;uniqueIndex:idx_daily_stocks_cpf_symbol" json:"cpf"`
	CurrentPrice     float64                       `gorm:"not null" json:"current_price"`
	MovingAverage200 *float64                      `json:"moving_average_200,omitempty"`
	MovingAveragePct *float64                      `json:"moving_average_pct,omitempty"`
	TargetPrice      *float64                      `json:"target_price,omitempty"`
	Upside           *float64                      `json:"upside,omitempty"`
	DistanceNegative float64                       `gorm:"not null;default:0" json:"distance_negative"`
	DistancePositive float64                       `gorm:"not null;default:0" json:"distance_positive"`
	Checklist        datatypes.JSONType[Checklist] `gorm:"type:jsonb" json:"checklist"`
	Score            int                           `gorm:"not null;default:0" json:"score"`
	LastCheckedAt    *time.Time                    `json:"last_checked_at,omitempty"`
	ReviewState      *ReviewState                  `json:"review_state,omitempty"`
	CreatedAt        time.Time                     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyStock) TableName() string {
	return "daily_stocks"
}
