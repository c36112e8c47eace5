package services

import (
	"errors"
	"math"

	"pos_manager/internal/models"
)

type SplitMode string

const (
	SplitEqual  SplitMode = "equal"
	SplitCustom SplitMode = "custom"
	SplitItems  SplitMode = "items"
)

var (
	ErrInvalidSplitMode = errors.New("invalid split mode")
	ErrNoGuests         = errors.New("split requires at least one guest")
)

type SplitRequest struct {
	Mode    SplitMode  `json:"mode"`
	Guests  int        `json:"guests"`
	Amounts []float64  `json:"amounts"` // custom mode: one entry per guest
	Claims  [][]string `json:"claims"`  // items mode: item ids claimed per guest
}

type SplitShare struct {
	Guest  int     `json:"guest"`
	Amount float64 `json:"amount"`
}

// SplitResult is a printing/display convenience. Shares are not enforced
// to cover the total: custom and per-item splits may under- or over-claim,
// and Remaining reports the gap (negative when over-claimed).
type SplitResult struct {
	Mode      SplitMode    `json:"mode"`
	Total     float64      `json:"total"`
	Shares    []SplitShare `json:"shares"`
	Remaining float64      `json:"remaining"`
}

// ComputeSplit partitions the order total across guests.
func ComputeSplit(order *models.Order, req SplitRequest) (*SplitResult, error) {
	switch req.Mode {
	case SplitEqual:
		return equalSplit(order.Total, req.Guests)
	case SplitCustom:
		return customSplit(order.Total, req.Amounts)
	case SplitItems:
		return itemSplit(order, req.Claims)
	default:
		return nil, ErrInvalidSplitMode
	}
}

// equalSplit divides the total evenly, rounding each share to cents; the
// last guest absorbs the rounding remainder so the shares always sum to
// the total exactly.
func equalSplit(total float64, guests int) (*SplitResult, error) {
	if guests < 1 {
		return nil, ErrNoGuests
	}

	share := roundCents(total / float64(guests))
	shares := make([]SplitShare, guests)
	allocated := 0.0
	for i := 0; i < guests-1; i++ {
		shares[i] = SplitShare{Guest: i + 1, Amount: share}
		allocated += share
	}
	shares[guests-1] = SplitShare{Guest: guests, Amount: roundCents(total - allocated)}

	return &SplitResult{Mode: SplitEqual, Total: total, Shares: shares}, nil
}

func customSplit(total float64, amounts []float64) (*SplitResult, error) {
	if len(amounts) < 1 {
		return nil, ErrNoGuests
	}

	shares := make([]SplitShare, len(amounts))
	entered := 0.0
	for i, amount := range amounts {
		shares[i] = SplitShare{Guest: i + 1, Amount: amount}
		entered += amount
	}

	return &SplitResult{
		Mode:      SplitCustom,
		Total:     total,
		Shares:    shares,
		Remaining: roundCents(total - entered),
	}, nil
}

// itemSplit sums each guest's claimed line totals. Guests may claim the
// same item or leave items unclaimed; no validation beyond Remaining.
func itemSplit(order *models.Order, claims [][]string) (*SplitResult, error) {
	if len(claims) < 1 {
		return nil, ErrNoGuests
	}

	lineTotals := make(map[string]float64, len(order.Items))
	for i := range order.Items {
		lineTotals[order.Items[i].ID] = order.Items[i].LineTotal()
	}

	shares := make([]SplitShare, len(claims))
	claimed := 0.0
	for i, itemIDs := range claims {
		amount := 0.0
		for _, id := range itemIDs {
			amount += lineTotals[id]
		}
		amount = roundCents(amount)
		shares[i] = SplitShare{Guest: i + 1, Amount: amount}
		claimed += amount
	}

	return &SplitResult{
		Mode:      SplitItems,
		Total:     order.Total,
		Shares:    shares,
		Remaining: roundCents(order.Total - claimed),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
