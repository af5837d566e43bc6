package inspection

import "github.com/shopspring/decimal"

// Score summarizes item evaluations
type Score struct {
	Compliant     int             `json:"compliant"`
	NonCompliant  int             `json:"non_compliant"`
	NotApplicable int             `json:"not_applicable"`
	Pending       int             `json:"pending"`
	Total         int             `json:"total"`
	Percentage    decimal.Decimal `json:"percentage"`
}

var hundred = decimal.NewFromInt(100)

// CalculateScore computes compliant / (compliant + non_compliant) × 100,
// rounded to two places. Not-applicable and unanswered items are excluded;
// with nothing evaluated the score is zero.
func CalculateScore(items []Item) Score {
	var s Score
	s.Total = len(items)
	for i := range items {
		it := &items[i]
		switch {
		case it.NotApplicable:
			s.NotApplicable++
		case it.IsCompliant == nil:
			s.Pending++
		case *it.IsCompliant:
			s.Compliant++
		default:
			s.NonCompliant++
		}
	}
	evaluated := s.Compliant + s.NonCompliant
	if evaluated == 0 {
		s.Percentage = decimal.Zero
		return s
	}
	s.Percentage = decimal.NewFromInt(int64(s.Compliant)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(evaluated))).
		Round(2)
	return s
}
