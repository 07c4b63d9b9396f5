/*
score.go - Sale quality score rubric

PURPOSE:
  Computes the 0-100 quality score for a sale from its product attributes
  and status. The score drives dashboards and rankings; it never affects
  commission eligibility directly.

RUBRIC (contributions summed, then clamped to [0, 100]):
  Fiber (max 40):   1000 Mbps -> 40, 600 -> 30, 300 -> 20, 100 -> 10.
                    Speeds between tiers score as the nearest LOWER tier,
                    matching the threshold semantics the stand always used.
  Mobile (max 30):  5 points per line capped at 3 lines (max 15), plus a
                    linear data component: 100 GB total or more -> 15,
                    below that totalGB*15/100 (integer division).
  Price (max 20):   >= 70 euro -> 20, >= 50 -> 15, >= 30 -> 10, else 0.
  Status (signed):  Finalizado +10, Instalado +8, En proceso +5,
                    Modificado +4, Registrado +3, Incidencia -5,
                    Cancelado -10.

RECOMPUTATION CONTRACT:
  Score is ALWAYS recomputed from scratch on any attribute or status
  change. There is no incremental delta logic anywhere; drift between a
  stored score and stored attributes is a bug in the caller.

MALFORMED SALES:
  Missing optional fields (no fiber, no lines, no price) score 0 on that
  dimension. Scoring is total: it never fails.
*/
package commission

import "github.com/shopspring/decimal"

// Per-dimension maxima of the rubric.
const (
	maxFiberPoints = 40
	maxLinePoints  = 15
	maxDataPoints  = 15
	maxPricePoints = 20
	pointsPerLine  = 5
	fullDataGB     = 100
)

// statusPoints is the signed status contribution, applied after the capped
// product dimensions.
var statusPoints = map[SaleStatus]int{
	StatusFinalizado: 10,
	StatusInstalado:  8,
	StatusEnProceso:  5,
	StatusModificado: 4,
	StatusRegistrado: 3,
	StatusIncidencia: -5,
	StatusCancelado:  -10,
}

// Score computes the sale's quality score. Pure and total: the same sale
// always yields the same score, and any shape of sale (including all-nil
// optionals) is accepted.
func Score(s Sale) int {
	score := fiberPoints(s.Fiber) + mobilePoints(s.Lines) + pricePoints(s.PackPrice)
	score += statusPoints[s.Status] // unknown status contributes 0

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// fiberPoints maps fiber speed to its tier. Unlisted speeds fall to the
// nearest lower tier.
func fiberPoints(f *Fiber) int {
	if f == nil {
		return 0
	}
	switch speed := f.SpeedMbps; {
	case speed >= 1000:
		return maxFiberPoints
	case speed >= 600:
		return 30
	case speed >= 300:
		return 20
	case speed >= 100:
		return 10
	default:
		return 0
	}
}

// mobilePoints scores line count and total data allowance.
func mobilePoints(lines []MobileLine) int {
	linePts := len(lines) * pointsPerLine
	if linePts > maxLinePoints {
		linePts = maxLinePoints
	}

	totalGB := 0
	for _, l := range lines {
		totalGB += l.GBData
	}
	dataPts := totalGB * maxDataPoints / fullDataGB
	if dataPts > maxDataPoints {
		dataPts = maxDataPoints
	}

	return linePts + dataPts
}

// pricePoints scores the monthly pack price. Absent price scores 0.
func pricePoints(price *decimal.Decimal) int {
	if price == nil {
		return 0
	}
	switch {
	case price.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return maxPricePoints
	case price.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return 15
	case price.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return 10
	default:
		return 0
	}
}
