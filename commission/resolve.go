/*
resolve.go - Threshold and retroactivity resolution

PURPOSE:
  Given one employee's sales for a month (creation order) and the month's
  config, decides per sale whether it is commissionable and why not when
  it isn't. This is the heart of the engine: ordering-sensitive, stateful
  across the sequence, and recomputed from scratch on every report.

STATE MACHINE (per employee per month):
  BELOW_THRESHOLD --count of ALL sales reaches Threshold--> THRESHOLD_REACHED

  The transition is monotonic within a recomputation: every sale counts
  toward the threshold regardless of status, so a later cancellation never
  reverts an employee who already crossed.

ELIGIBILITY (evaluated only for Instalado/Finalizado sales):
  - Threshold never reached         -> nothing commissions ("Umbral no alcanzado")
  - Reached, Retroactive=false      -> only sales strictly AFTER the
                                       crossing sale commission
  - Reached, Retroactive=true       -> every sale with Seq >= RetroactiveFrom
                                       commissions, including ones recorded
                                       before the crossing. Retroactivity is
                                       anchored to the configured sale number,
                                       NOT to the crossing event.

REASONS:
  Non-commissionable sales carry a human-readable Spanish reason, displayed
  verbatim in the employee breakdown.
*/
package commission

// Reason strings shown to users for non-commissionable sales.
const (
	ReasonStatusNotEligible   = "Estado no comisiona"
	ReasonThresholdNotReached = "Umbral no alcanzado"
	ReasonBeforeThreshold     = "Venta anterior al umbral"
	ReasonBeforeRetroactive   = "Anterior al inicio retroactivo"
)

// SaleEligibility is the resolver's verdict for one sale.
type SaleEligibility struct {
	SequencedSale
	Commissionable bool
	Reason         string // empty when commissionable
}

// Resolve runs the threshold state machine over an employee's month.
// Input order does not matter; sales are (re)sequenced internally so the
// verdicts are stable under report regeneration.
func Resolve(sales []Sale, cfg Config) []SaleEligibility {
	seq := SequenceSales(sales)

	// Find the sequence number at which the threshold is crossed. Every
	// sale counts toward it, whatever its status. A zero threshold means
	// the employee starts the month already crossed (crossedAt stays 0, so
	// every sale is "after" the crossing).
	crossedAt := 0
	if cfg.Threshold > 0 && len(seq) >= cfg.Threshold {
		crossedAt = cfg.Threshold
	}
	reached := cfg.Threshold <= 0 || crossedAt > 0

	out := make([]SaleEligibility, len(seq))
	for i, s := range seq {
		e := SaleEligibility{SequencedSale: s}

		switch {
		case !s.Status.CountsForCommission():
			e.Reason = ReasonStatusNotEligible

		case !reached:
			e.Reason = ReasonThresholdNotReached

		case cfg.Retroactive:
			if s.Seq >= cfg.RetroactiveFrom {
				e.Commissionable = true
			} else {
				e.Reason = ReasonBeforeRetroactive
			}

		default:
			// Non-retroactive: only sales strictly after the crossing sale.
			if s.Seq > crossedAt {
				e.Commissionable = true
			} else {
				e.Reason = ReasonBeforeThreshold
			}
		}

		out[i] = e
	}
	return out
}

// ThresholdReached reports whether the employee crossed the month's
// threshold, under the same all-sales-count rule Resolve uses.
func ThresholdReached(sales []Sale, cfg Config) bool {
	if cfg.Threshold <= 0 {
		return true
	}
	return len(sales) >= cfg.Threshold
}
