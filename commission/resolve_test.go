/*
resolve_test.go - Behavioral tests for threshold and retroactivity resolution

PURPOSE:
  These tests document the engine's core contract: which sales commission
  and why not when they don't. Each test states a scenario an admin would
  recognize from the monthly report.

ORGANIZATION:
  1. Threshold counting - every sale counts, whatever its status
  2. Retroactivity - anchored to the configured sale number
  3. Non-retroactive mode - strictly after the crossing sale
  4. Reasons - the Spanish strings shown on breakdowns
  5. Stability - regenerating a report never changes verdicts
*/
package commission_test

import (
	"testing"
	"time"

	"github.com/hipnotik/commission-engine/commission"
)

// saleAt builds a sale recorded at the given hour of a fixed day, so
// creation order is explicit in every scenario.
func saleAt(id string, hour int, status commission.SaleStatus) commission.Sale {
	return commission.Sale{
		ID:        commission.SaleID(id),
		ClientID:  "cli-1",
		Company:   "Movistar",
		PackType:  commission.PackSoloFibra,
		PackPrice: euros("39"),
		Status:    status,
		CreatedBy: "emp-1",
		CreatedAt: time.Date(2026, time.March, 10, hour, 0, 0, 0, time.UTC),
	}
}

func installedSales(n int) []commission.Sale {
	out := make([]commission.Sale, n)
	for i := range out {
		out[i] = saleAt(string(rune('a'+i)), i, commission.StatusInstalado)
	}
	return out
}

func cfgMarch(threshold int, retroactive bool, from int) commission.Config {
	m, _ := commission.NewMonth(2026, 3)
	return commission.Config{
		Month:           m,
		Threshold:       threshold,
		Retroactive:     retroactive,
		RetroactiveFrom: from,
		Categories:      commission.DefaultCategories(),
	}
}

// =============================================================================
// THRESHOLD COUNTING
// =============================================================================

func TestResolve_BelowThreshold_NothingCommissions(t *testing.T) {
	// GIVEN: Threshold 5 and only 4 sales, all installed
	// THEN: No sale commissions; each carries the not-reached reason
	verdicts := commission.Resolve(installedSales(4), cfgMarch(5, true, 1))

	for _, v := range verdicts {
		if v.Commissionable {
			t.Errorf("sale #%d commissionable below threshold", v.Seq)
		}
		if v.Reason != commission.ReasonThresholdNotReached {
			t.Errorf("sale #%d reason = %q, want %q", v.Seq, v.Reason, commission.ReasonThresholdNotReached)
		}
	}
}

func TestResolve_AllStatusesCountTowardThreshold(t *testing.T) {
	// GIVEN: Threshold 5; 4 installed sales plus 1 cancelled
	// WHEN: The cancelled sale is the 5th recorded
	// THEN: The threshold is crossed; the cancellation still counts
	sales := installedSales(4)
	sales = append(sales, saleAt("z", 10, commission.StatusCancelado))

	if !commission.ThresholdReached(sales, cfgMarch(5, true, 1)) {
		t.Fatal("threshold should be reached counting the cancelled sale")
	}

	verdicts := commission.Resolve(sales, cfgMarch(5, true, 1))
	commissionable := 0
	for _, v := range verdicts {
		if v.Commissionable {
			commissionable++
		}
	}
	// The 4 installed sales commission retroactively; the cancelled one never does.
	if commissionable != 4 {
		t.Errorf("commissionable = %d, want 4", commissionable)
	}
}

func TestResolve_CancellationNeverRevertsCrossing(t *testing.T) {
	// GIVEN: 6 sales where an early one is later cancelled
	// THEN: The employee stays crossed; verdicts for the rest are unchanged
	sales := installedSales(6)
	sales[1].Status = commission.StatusCancelado

	verdicts := commission.Resolve(sales, cfgMarch(5, true, 1))
	for _, v := range verdicts {
		if v.Status == commission.StatusCancelado {
			if v.Commissionable {
				t.Error("cancelled sale must not commission")
			}
			continue
		}
		if !v.Commissionable {
			t.Errorf("sale #%d should commission, got reason %q", v.Seq, v.Reason)
		}
	}
}

func TestResolve_ZeroThreshold_EverythingEligible(t *testing.T) {
	// A zero threshold means the month starts already crossed.
	verdicts := commission.Resolve(installedSales(2), cfgMarch(0, false, 0))
	for _, v := range verdicts {
		if !v.Commissionable {
			t.Errorf("sale #%d not commissionable under zero threshold: %q", v.Seq, v.Reason)
		}
	}
}

// =============================================================================
// RETROACTIVITY
// =============================================================================

func TestResolve_Retroactive_FromFirstSale(t *testing.T) {
	// GIVEN: Threshold 5, retroactive from sale #1, 7 installed sales
	// THEN: All 7 commission, including the 5 recorded before crossing
	verdicts := commission.Resolve(installedSales(7), cfgMarch(5, true, 1))

	for _, v := range verdicts {
		if !v.Commissionable {
			t.Errorf("sale #%d should commission retroactively, got %q", v.Seq, v.Reason)
		}
	}
}

func TestResolve_Retroactive_AnchoredToConfiguredStart(t *testing.T) {
	// GIVEN: Threshold 5, retroactive from sale #3
	// THEN: Sales #1 and #2 stay out; #3 onward commission. The anchor is
	// the configured number, not the crossing sale.
	verdicts := commission.Resolve(installedSales(7), cfgMarch(5, true, 3))

	for _, v := range verdicts {
		switch {
		case v.Seq < 3:
			if v.Commissionable {
				t.Errorf("sale #%d before the retroactive start should not commission", v.Seq)
			}
			if v.Reason != commission.ReasonBeforeRetroactive {
				t.Errorf("sale #%d reason = %q, want %q", v.Seq, v.Reason, commission.ReasonBeforeRetroactive)
			}
		default:
			if !v.Commissionable {
				t.Errorf("sale #%d should commission, got %q", v.Seq, v.Reason)
			}
		}
	}
}

func TestResolve_NonRetroactive_OnlyAfterCrossing(t *testing.T) {
	// GIVEN: Threshold 5, no retroactivity, 7 installed sales
	// THEN: Only #6 and #7 commission; #1-#5 carry the before-threshold reason
	verdicts := commission.Resolve(installedSales(7), cfgMarch(5, false, 0))

	for _, v := range verdicts {
		if v.Seq <= 5 {
			if v.Commissionable {
				t.Errorf("sale #%d at or before the crossing should not commission", v.Seq)
			}
			if v.Reason != commission.ReasonBeforeThreshold {
				t.Errorf("sale #%d reason = %q, want %q", v.Seq, v.Reason, commission.ReasonBeforeThreshold)
			}
		} else if !v.Commissionable {
			t.Errorf("sale #%d after the crossing should commission, got %q", v.Seq, v.Reason)
		}
	}
}

// =============================================================================
// STATUS ELIGIBILITY
// =============================================================================

func TestResolve_OnlyInstalledAndFinalizedCommission(t *testing.T) {
	// GIVEN: A crossed employee with one sale in every status
	statuses := commission.SaleStatuses()
	sales := make([]commission.Sale, len(statuses))
	for i, st := range statuses {
		sales[i] = saleAt(string(rune('a'+i)), i, st)
	}

	verdicts := commission.Resolve(sales, cfgMarch(5, true, 1))
	for _, v := range verdicts {
		eligible := v.Status == commission.StatusInstalado || v.Status == commission.StatusFinalizado
		if v.Commissionable != eligible {
			t.Errorf("status %s: commissionable = %v, want %v", v.Status, v.Commissionable, eligible)
		}
		if !eligible && v.Reason != commission.ReasonStatusNotEligible {
			t.Errorf("status %s reason = %q, want %q", v.Status, v.Reason, commission.ReasonStatusNotEligible)
		}
	}
}

// =============================================================================
// STABILITY
// =============================================================================

func TestResolve_InputOrderDoesNotMatter(t *testing.T) {
	// GIVEN: The same sales presented in reverse order
	// THEN: Sequence numbers and verdicts are identical
	sales := installedSales(7)
	reversed := make([]commission.Sale, len(sales))
	for i, s := range sales {
		reversed[len(sales)-1-i] = s
	}

	a := commission.Resolve(sales, cfgMarch(5, false, 0))
	b := commission.Resolve(reversed, cfgMarch(5, false, 0))

	for i := range a {
		if a[i].ID != b[i].ID || a[i].Seq != b[i].Seq || a[i].Commissionable != b[i].Commissionable {
			t.Fatalf("verdict %d differs between orderings: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSequenceSales_TieBreakByID(t *testing.T) {
	// Two sales created at the same instant order by ID, so regenerated
	// reports never swap their numbers.
	at := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	s1 := saleAt("bbb", 9, commission.StatusInstalado)
	s2 := saleAt("aaa", 9, commission.StatusInstalado)
	s1.CreatedAt = at
	s2.CreatedAt = at

	seq := commission.SequenceSales([]commission.Sale{s1, s2})
	if seq[0].ID != "aaa" || seq[0].Seq != 1 {
		t.Errorf("first = %s (#%d), want aaa (#1)", seq[0].ID, seq[0].Seq)
	}
	if seq[1].ID != "bbb" || seq[1].Seq != 2 {
		t.Errorf("second = %s (#%d), want bbb (#2)", seq[1].ID, seq[1].Seq)
	}
}
