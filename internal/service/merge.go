package service

import (
	"strings"
	"time"

	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/model"

	"gorm.io/datatypes"
)

// Merge resolves a base record, a partial user edit and fetched enrichment
// into the next record state. It is a pure function; persistence and
// notification are the caller's business.
//
// Field resolution, in order:
//  1. identity (symbol, cpf) comes from the edit only when base is nil
//     (creation); on update it is carried from base, so edits can never
//     move a record between partitions or symbols.
//  2. currentPrice: enrichment price, else the edit's manual override,
//     else the base price.
//  3. movingAverage200: enrichment value when present, else base — an
//     absent enrichment never clears a previously known average.
//  4. targetPrice, distances, reviewState, lastCheckedAt: the edit's value
//     when supplied (non-nil), else base. Supplying one does not clear the
//     others.
//  5. checklist: a toggle flips exactly one flag over base's flags; a
//     creation starts all-false.
//  6. score, upside, movingAveragePct are recomputed from the resolved
//     fields and never taken from the edit.
func Merge(base *model.DailyStock, edit dto.StockEdit, quote *dto.StockQuote) model.DailyStock {
	var out model.DailyStock

	if base != nil {
		out.ID = base.ID
		out.Symbol = base.Symbol
		out.CPF = base.CPF
		out.CreatedAt = base.CreatedAt
	} else {
		out.Symbol = strings.ToUpper(edit.Symbol)
		out.CPF = edit.CPF
	}

	switch {
	case quote != nil:
		out.CurrentPrice = quote.Price
	case edit.CurrentPrice != nil:
		out.CurrentPrice = *edit.CurrentPrice
	case base != nil:
		out.CurrentPrice = base.CurrentPrice
	}

	if quote != nil && quote.MovingAverage200 != nil {
		ma := *quote.MovingAverage200
		out.MovingAverage200 = &ma
	} else if base != nil {
		out.MovingAverage200 = base.MovingAverage200
	}

	out.TargetPrice = resolve(edit.TargetPrice, basePtr(base, func(s *model.DailyStock) *float64 { return s.TargetPrice }))
	out.ReviewState = resolve(edit.ReviewState, basePtr(base, func(s *model.DailyStock) *model.ReviewState { return s.ReviewState }))
	out.LastCheckedAt = resolve(edit.LastCheckedAt, basePtr(base, func(s *model.DailyStock) *time.Time { return s.LastCheckedAt }))

	if edit.DistanceNegative != nil {
		out.DistanceNegative = *edit.DistanceNegative
	} else if base != nil {
		out.DistanceNegative = base.DistanceNegative
	}
	if edit.DistancePositive != nil {
		out.DistancePositive = *edit.DistancePositive
	} else if base != nil {
		out.DistancePositive = base.DistancePositive
	}

	var checklist model.Checklist
	if base != nil {
		checklist = base.Checklist.Data()
	}
	if edit.Toggle != nil {
		// Unknown flag names are rejected upstream; ignore here to keep
		// the merge total.
		_ = checklist.Set(edit.Toggle.Flag, edit.Toggle.Value)
	}
	out.Checklist = datatypes.NewJSONType(checklist)

	out.Score = Score(checklist)
	out.Upside = Upside(out.TargetPrice, out.CurrentPrice)
	out.MovingAveragePct = MADeviationPercent(out.MovingAverage200, out.CurrentPrice)

	return out
}

func resolve[T any](edit *T, base *T) *T {
	if edit != nil {
		v := *edit
		return &v
	}
	return base
}

func basePtr[T any](base *model.DailyStock, get func(*model.DailyStock) *T) *T {
	if base == nil {
		return nil
	}
	return get(base)
}
