/*
aggregate.go - Monthly commission aggregation

PURPOSE:
  Combines the resolver and the category matcher into the reports the UI
  consumes: a per-employee breakdown (every sale with its verdict, category
  and amount) and an organization summary (totals across employees).

TWO LAYERS:
  1. Pure functions (BreakdownFor, Summarize): operate on already-fetched
     inputs. These carry all the arithmetic and are what the engine tests
     exercise.
  2. Aggregator service: fetches sales/config/directory through the
     repository interfaces, snapshots them once per request, and isolates
     per-employee fetch failures so one bad employee never aborts the
     organization summary.

UNCONFIGURED MONTHS:
  A month without a config is a well-defined result: ConfigExists=false,
  zeroed totals, no per-sale verdicts. Callers can always distinguish
  "nobody qualified" from "not configured yet".

PRECISION:
  Totals are summed in full decimal precision. Rounding to 2 digits is the
  API layer's job.

SEE ALSO:
  - resolve.go: Eligibility verdicts
  - category.go: Category matching and amounts
*/
package commission

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPOSITORY INTERFACES - The engine's view of its collaborators
// =============================================================================

// SaleRepository fetches sales for aggregation. Implementations must return
// each employee's sales for the month; ordering is not required (the engine
// re-sequences), but the set must be a consistent snapshot.
type SaleRepository interface {
	// SalesByMonth returns all sales created in the month, grouped by the
	// employee who recorded them.
	SalesByMonth(ctx context.Context, m Month) (map[EmployeeID][]Sale, error)

	// SalesByEmployeeMonth returns one employee's sales for the month.
	SalesByEmployeeMonth(ctx context.Context, id EmployeeID, m Month) ([]Sale, error)
}

// EmployeeDirectory labels reports with employee names.
type EmployeeDirectory interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
}

// ConfigRepository stores per-month configurations.
type ConfigRepository interface {
	// GetConfig returns the month's config or ErrConfigNotFound.
	GetConfig(ctx context.Context, m Month) (*Config, error)

	// PutConfig validates and upserts a config. The config's Version is the
	// version the write was based on (0 = no expectation); a mismatch fails
	// with ErrConcurrentModification.
	PutConfig(ctx context.Context, cfg Config) error

	// DuplicateConfig copies the source month's config into target with
	// fresh category identities. Fails with ErrDuplicateTargetExists when
	// the target is configured, unless overwrite is set.
	DuplicateConfig(ctx context.Context, source, target Month, overwrite bool) (*Config, error)
}

// =============================================================================
// RESULTS
// =============================================================================

// SaleResult is one sale's full verdict: eligibility plus, when eligible,
// the matched category and amount.
type SaleResult struct {
	SaleEligibility
	Category   string // empty when no category matched or not commissionable
	Commission decimal.Decimal
}

// EmployeeBreakdown is one employee's month in full.
type EmployeeBreakdown struct {
	EmployeeID          EmployeeID
	EmployeeName        string
	Month               Month
	TotalSales          int
	ValidSales          int // non-cancelled
	ThresholdReached    bool
	CommissionableSales int
	TotalCommission     decimal.Decimal
	Sales               []SaleResult
}

// EmployeeSummary is the per-employee row on the organization summary.
type EmployeeSummary struct {
	EmployeeID          EmployeeID
	EmployeeName        string
	TotalSales          int
	ValidSales          int
	ThresholdReached    bool
	CommissionableSales int
	TotalCommission     decimal.Decimal
	Err                 string // non-empty when this employee's data failed to load
}

// MonthlySummary is the organization-wide result for a month.
type MonthlySummary struct {
	Month               Month
	ConfigExists        bool
	Threshold           int
	TotalSales          int
	ValidSales          int
	CommissionableSales int
	TotalCommission     decimal.Decimal
	Employees           []EmployeeSummary
}

// =============================================================================
// PURE AGGREGATION
// =============================================================================

// BreakdownFor computes one employee's full month from already-fetched
// inputs. Deterministic and idempotent: unchanged inputs yield identical
// output, including ordering.
func BreakdownFor(emp Employee, sales []Sale, cfg Config) EmployeeBreakdown {
	b := EmployeeBreakdown{
		EmployeeID:       emp.ID,
		EmployeeName:     emp.Name,
		Month:            cfg.Month,
		TotalSales:       len(sales),
		ThresholdReached: ThresholdReached(sales, cfg),
		TotalCommission:  decimal.Zero,
	}

	for _, e := range Resolve(sales, cfg) {
		r := SaleResult{SaleEligibility: e, Commission: decimal.Zero}
		if !e.Status.IsCancelled() {
			b.ValidSales++
		}
		if e.Commissionable {
			if cat := MatchCategory(e.Sale, cfg.Categories); cat != nil {
				r.Category = cat.Name
				r.Commission = cat.Amount(e.Sale)
				b.CommissionableSales++
				b.TotalCommission = b.TotalCommission.Add(r.Commission)
			} else {
				// Threshold-eligible but no category admits the sale.
				// Distinct from threshold ineligibility: it stays
				// commissionable with a zero amount.
				b.CommissionableSales++
			}
		}
		b.Sales = append(b.Sales, r)
	}
	return b
}

// Summarize folds per-employee breakdowns into the organization summary.
// Employees with no sales still appear, zeroed.
func Summarize(employees []Employee, salesByEmployee map[EmployeeID][]Sale, cfg Config) MonthlySummary {
	sum := MonthlySummary{
		Month:           cfg.Month,
		ConfigExists:    true,
		Threshold:       cfg.Threshold,
		TotalCommission: decimal.Zero,
	}

	for _, emp := range employees {
		b := BreakdownFor(emp, salesByEmployee[emp.ID], cfg)
		sum.Employees = append(sum.Employees, EmployeeSummary{
			EmployeeID:          b.EmployeeID,
			EmployeeName:        b.EmployeeName,
			TotalSales:          b.TotalSales,
			ValidSales:          b.ValidSales,
			ThresholdReached:    b.ThresholdReached,
			CommissionableSales: b.CommissionableSales,
			TotalCommission:     b.TotalCommission,
		})
		sum.TotalSales += b.TotalSales
		sum.ValidSales += b.ValidSales
		sum.CommissionableSales += b.CommissionableSales
		sum.TotalCommission = sum.TotalCommission.Add(b.TotalCommission)
	}
	return sum
}

// UnconfiguredSummary is the well-defined result for a month with no config.
func UnconfiguredSummary(m Month) MonthlySummary {
	return MonthlySummary{Month: m, ConfigExists: false, TotalCommission: decimal.Zero}
}

// =============================================================================
// AGGREGATOR SERVICE - Fetch, snapshot, compute
// =============================================================================

// Aggregator wires the pure computation to the repositories.
type Aggregator struct {
	Sales     SaleRepository
	Configs   ConfigRepository
	Directory EmployeeDirectory
}

// NewAggregator creates an aggregator over the given collaborators.
func NewAggregator(sales SaleRepository, configs ConfigRepository, dir EmployeeDirectory) *Aggregator {
	return &Aggregator{Sales: sales, Configs: configs, Directory: dir}
}

// Summary computes the organization summary for a month. Inputs are fetched
// once up front so the computation runs over a consistent snapshot. A
// missing config returns the unconfigured result, not an error; a failed
// per-employee sale fetch is reported on that employee's row and the rest
// of the summary proceeds.
func (a *Aggregator) Summary(ctx context.Context, m Month) (MonthlySummary, error) {
	cfg, err := a.Configs.GetConfig(ctx, m)
	if err != nil {
		if IsNotFound(err) {
			return UnconfiguredSummary(m), nil
		}
		return MonthlySummary{}, err
	}

	employees, err := a.Directory.ListEmployees(ctx)
	if err != nil {
		return MonthlySummary{}, err
	}
	sortEmployees(employees)

	salesByEmployee, fetchErr := a.Sales.SalesByMonth(ctx, m)
	if fetchErr == nil {
		return Summarize(employees, salesByEmployee, *cfg), nil
	}

	// Bulk fetch failed; fall back to per-employee fetches so one failure
	// is isolated to its row instead of aborting the whole summary.
	sum := MonthlySummary{
		Month:           m,
		ConfigExists:    true,
		Threshold:       cfg.Threshold,
		TotalCommission: decimal.Zero,
	}
	for _, emp := range employees {
		sales, err := a.Sales.SalesByEmployeeMonth(ctx, emp.ID, m)
		if err != nil {
			sum.Employees = append(sum.Employees, EmployeeSummary{
				EmployeeID:      emp.ID,
				EmployeeName:    emp.Name,
				TotalCommission: decimal.Zero,
				Err:             err.Error(),
			})
			continue
		}
		b := BreakdownFor(emp, sales, *cfg)
		sum.Employees = append(sum.Employees, EmployeeSummary{
			EmployeeID:          b.EmployeeID,
			EmployeeName:        b.EmployeeName,
			TotalSales:          b.TotalSales,
			ValidSales:          b.ValidSales,
			ThresholdReached:    b.ThresholdReached,
			CommissionableSales: b.CommissionableSales,
			TotalCommission:     b.TotalCommission,
		})
		sum.TotalSales += b.TotalSales
		sum.ValidSales += b.ValidSales
		sum.CommissionableSales += b.CommissionableSales
		sum.TotalCommission = sum.TotalCommission.Add(b.TotalCommission)
	}
	return sum, nil
}

// EmployeeDetail computes one employee's full breakdown for a month.
// Returns ErrEmployeeNotFound for unknown employees. An unconfigured month
// yields a zeroed breakdown with no verdicts; callers check the config
// separately when they need to distinguish (the summary endpoint does).
func (a *Aggregator) EmployeeDetail(ctx context.Context, id EmployeeID, m Month) (EmployeeBreakdown, bool, error) {
	emp, err := a.Directory.GetEmployee(ctx, id)
	if err != nil {
		return EmployeeBreakdown{}, false, err
	}
	if emp == nil {
		return EmployeeBreakdown{}, false, ErrEmployeeNotFound
	}

	cfg, err := a.Configs.GetConfig(ctx, m)
	if err != nil {
		if IsNotFound(err) {
			return EmployeeBreakdown{
				EmployeeID:      emp.ID,
				EmployeeName:    emp.Name,
				Month:           m,
				TotalCommission: decimal.Zero,
			}, false, nil
		}
		return EmployeeBreakdown{}, false, err
	}

	sales, err := a.Sales.SalesByEmployeeMonth(ctx, id, m)
	if err != nil {
		return EmployeeBreakdown{}, false, err
	}
	return BreakdownFor(*emp, sales, *cfg), true, nil
}

func sortEmployees(employees []Employee) {
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].Name != employees[j].Name {
			return employees[i].Name < employees[j].Name
		}
		return employees[i].ID < employees[j].ID
	})
}
