/*
Package commission provides the sale scoring and commission calculation engine.

PURPOSE:
  This package contains the domain types and algorithms for scoring telecom
  retail sales and computing monthly commissions: which sales qualify, into
  which category they fall, and how much each employee is owed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sale: A recorded telecom sale (pack, fiber, mobile lines, status, score)
  - PackType / SaleStatus: Fixed enumerations from the retail catalog
  - Month: A (year, month) key, the unit every computation is scoped to
  - SequencedSale: A sale tagged with its derived per-month sequence number

DESIGN PRINCIPLES:
  1. Purity: Every computation is a function of its inputs. No ambient
     "current month" state; (year, month) is passed explicitly.
  2. Precision: Monetary values use decimal.Decimal end to end. Rounding
     to 2 digits happens only at the API boundary.
  3. Derived values stay derived: scores are recomputed from attributes,
     sequence numbers are recomputed from creation order. Neither is ever
     hand-edited or trusted from storage for computation.

SEE ALSO:
  - score.go: The 0-100 quality score rubric
  - category.go: Commission category matching
  - resolve.go: Threshold and retroactivity resolution
  - aggregate.go: Monthly per-employee and organization totals
*/
package commission

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SaleID string
type EmployeeID string
type ClientID string
type CategoryID string

// =============================================================================
// ENUMERATIONS - Fixed sets from the retail catalog
// =============================================================================

// PackType is the product family of a sale. The strings are the wire values
// used by the stand software and must not be re-spelled.
type PackType string

const (
	PackSoloMovil    PackType = "Solo Móvil"
	PackSoloFibra    PackType = "Solo Fibra"
	PackFibraMovil   PackType = "Pack Fibra + Móvil"
	PackFibraMovilTV PackType = "Pack Fibra + Móvil + TV"
)

// PackTypes lists all valid pack types in catalog order.
func PackTypes() []PackType {
	return []PackType{PackSoloMovil, PackSoloFibra, PackFibraMovil, PackFibraMovilTV}
}

// SaleStatus is the lifecycle state of a sale.
type SaleStatus string

const (
	StatusRegistrado SaleStatus = "Registrado"
	StatusEnProceso  SaleStatus = "En proceso"
	StatusIncidencia SaleStatus = "Incidencia"
	StatusInstalado  SaleStatus = "Instalado"
	StatusModificado SaleStatus = "Modificado"
	StatusCancelado  SaleStatus = "Cancelado"
	StatusFinalizado SaleStatus = "Finalizado"
)

// SaleStatuses lists all valid statuses in lifecycle order.
func SaleStatuses() []SaleStatus {
	return []SaleStatus{
		StatusRegistrado, StatusEnProceso, StatusIncidencia,
		StatusInstalado, StatusModificado, StatusCancelado, StatusFinalizado,
	}
}

// IsValidStatus reports whether s is one of the known sale statuses.
func IsValidStatus(s SaleStatus) bool {
	for _, known := range SaleStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsValidPackType reports whether p is one of the known pack types.
func IsValidPackType(p PackType) bool {
	for _, known := range PackTypes() {
		if p == known {
			return true
		}
	}
	return false
}

// CountsForCommission reports whether a status makes a sale eligible for
// commission at all. Only installed and finalized sales ever commission;
// everything else is excluded regardless of thresholds.
func (s SaleStatus) CountsForCommission() bool {
	return s == StatusInstalado || s == StatusFinalizado
}

// IsCancelled reports whether the sale was cancelled. Cancelled sales still
// count toward the threshold (spec: ALL sales count) but are excluded from
// the "valid sales" figure on summaries.
func (s SaleStatus) IsCancelled() bool {
	return s == StatusCancelado
}

// =============================================================================
// SALE - A recorded telecom sale
// =============================================================================

// Fiber is the fiber component of a sale, when contracted.
type Fiber struct {
	SpeedMbps int `json:"speed_mbps"`
}

// MobileLine is one mobile line on a sale, with its data allowance in GB.
type MobileLine struct {
	GBData int `json:"gb_data"`
}

// Sale is a recorded sale. Score is derived: it is always a pure function of
// the other attributes and must be recomputed on every mutation, never
// hand-edited.
type Sale struct {
	ID        SaleID
	ClientID  ClientID
	Company   string // carrier, e.g. "Movistar", "Vodafone"
	PackType  PackType
	PackPrice *decimal.Decimal // nil = no price recorded
	Fiber     *Fiber           // nil = no fiber on this sale
	Lines     []MobileLine
	Notes     string
	Status    SaleStatus
	Score     int // derived, 0-100, see score.go
	CreatedBy EmployeeID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Employee is a directory entry used to label reports.
type Employee struct {
	ID        EmployeeID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Client is the minimal client reference a sale points at.
type Client struct {
	ID        ClientID
	Name      string
	Phone     string
	CreatedBy EmployeeID
	CreatedAt time.Time
}

// =============================================================================
// MONTH - The (year, month) key every computation is scoped to
// =============================================================================

// Month identifies a calendar month. It is the key for commission configs
// and the scope of every aggregate.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month from integer year and 1-12 month.
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: month %d out of range", ErrInvalidMonth, month)
	}
	if year < 2000 || year > 2100 {
		return Month{}, fmt.Errorf("%w: year %d out of range", ErrInvalidMonth, year)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// Contains reports whether t falls inside the month (UTC).
func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return u.Year() == m.Year && u.Month() == m.Month
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month in UTC, so the month
// interval is [Start, End).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// =============================================================================
// SEQUENCING - Derived per-employee, per-month sale numbering
// =============================================================================

// SequencedSale is a sale tagged with its 1-based position in the employee's
// month, by creation order. Sequence numbers are recomputed on every report;
// they are never persisted.
type SequencedSale struct {
	Sale
	Seq int
}

// SequenceSales orders sales by creation time ascending, breaking ties by ID,
// and assigns 1-based sequence numbers. The ordering is total and stable, so
// regenerating a report from the same sale set yields the same numbering.
func SequenceSales(sales []Sale) []SequencedSale {
	ordered := make([]Sale, len(sales))
	copy(ordered, sales)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	out := make([]SequencedSale, len(ordered))
	for i, s := range ordered {
		out[i] = SequencedSale{Sale: s, Seq: i + 1}
	}
	return out
}
