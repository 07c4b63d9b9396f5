/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All monetary fields are rounded to 2 digits HERE and only here. The
  engine computes in full decimal precision; DTOs are where euros become
  display numbers.

SEE ALSO:
  - handlers.go: Uses these types
  - commission/category.go: Category travels as-is (shared json tags)
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hipnotik/commission-engine/commission"
)

// =============================================================================
// CONFIG
// =============================================================================

// ConfigDTO represents a month's commission configuration. ConfigExists
// lets clients distinguish "not configured" from "configured empty".
type ConfigDTO struct {
	Year            int                   `json:"year"`
	Month           int                   `json:"month"`
	ConfigExists    bool                  `json:"config_exists"`
	Threshold       int                   `json:"threshold"`
	Retroactive     bool                  `json:"retroactive"`
	RetroactiveFrom int                   `json:"retroactive_from"`
	Categories      []commission.Category `json:"categories"`
	Version         int                   `json:"version"`
}

// PutConfigRequest is the body for config upserts. Version is the version
// the edit was based on; 0 skips the optimistic check.
type PutConfigRequest struct {
	Threshold       int                   `json:"threshold"`
	Retroactive     bool                  `json:"retroactive"`
	RetroactiveFrom int                   `json:"retroactive_from"`
	Categories      []commission.Category `json:"categories"`
	Version         int                   `json:"version"`
}

// =============================================================================
// SUMMARY / BREAKDOWN
// =============================================================================

// SummaryDTO is the organization-wide commission summary for a month.
type SummaryDTO struct {
	Year                int                  `json:"year"`
	Month               int                  `json:"month"`
	ConfigExists        bool                 `json:"config_exists"`
	Threshold           int                  `json:"threshold"`
	TotalSales          int                  `json:"total_sales"`
	ValidSales          int                  `json:"valid_sales"`
	CommissionableSales int                  `json:"commissionable_sales"`
	TotalCommission     float64              `json:"total_commission"`
	Employees           []EmployeeSummaryDTO `json:"employees"`
}

// EmployeeSummaryDTO is one employee's row on the summary.
type EmployeeSummaryDTO struct {
	EmployeeID          string  `json:"employee_id"`
	EmployeeName        string  `json:"employee_name"`
	TotalSales          int     `json:"total_sales"`
	ValidSales          int     `json:"valid_sales"`
	ThresholdReached    bool    `json:"threshold_reached"`
	CommissionableSales int     `json:"commissionable_sales"`
	TotalCommission     float64 `json:"total_commission"`
	Error               string  `json:"error,omitempty"`
}

// EmployeeDetailDTO is one employee's full per-sale breakdown.
type EmployeeDetailDTO struct {
	EmployeeID          string             `json:"employee_id"`
	EmployeeName        string             `json:"employee_name"`
	Year                int                `json:"year"`
	Month               int                `json:"month"`
	ConfigExists        bool               `json:"config_exists"`
	TotalSales          int                `json:"total_sales"`
	ValidSales          int                `json:"valid_sales"`
	ThresholdReached    bool               `json:"threshold_reached"`
	CommissionableSales int                `json:"commissionable_sales"`
	TotalCommission     float64            `json:"total_commission"`
	Sales               []SaleBreakdownDTO `json:"sales"`
}

// SaleBreakdownDTO is one sale's verdict inside a breakdown. SaleNum is the
// derived per-month sequence number.
type SaleBreakdownDTO struct {
	SaleID         string   `json:"sale_id"`
	SaleNum        int      `json:"sale_num"`
	ClientID       string   `json:"client_id"`
	ClientName     string   `json:"client_name,omitempty"`
	Company        string   `json:"company"`
	PackType       string   `json:"pack_type"`
	PackPrice      *float64 `json:"pack_price"`
	Status         string   `json:"status"`
	IsValid        bool     `json:"is_valid"`
	Score          int      `json:"score"`
	Commissionable bool     `json:"commissionable"`
	Category       string   `json:"category,omitempty"`
	Commission     float64  `json:"commission"`
	Reason         string   `json:"reason,omitempty"`
}

// =============================================================================
// SALES
// =============================================================================

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID        string                  `json:"id"`
	ClientID  string                  `json:"client_id"`
	Company   string                  `json:"company"`
	PackType  string                  `json:"pack_type"`
	PackPrice *float64                `json:"pack_price"`
	Fiber     *commission.Fiber       `json:"fiber"`
	Lines     []commission.MobileLine `json:"mobile_lines"`
	Notes     string                  `json:"notes,omitempty"`
	Status    string                  `json:"status"`
	Score     int                     `json:"score"`
	CreatedBy string                  `json:"created_by"`
	CreatedAt string                  `json:"created_at"`
	UpdatedAt string                  `json:"updated_at"`
}

// SaleRequest is the body for creating or updating a sale. The score is
// never accepted from clients; it is recomputed on every write.
type SaleRequest struct {
	ClientID  string                  `json:"client_id"`
	Company   string                  `json:"company"`
	PackType  string                  `json:"pack_type"`
	PackPrice *float64                `json:"pack_price"`
	Fiber     *commission.Fiber       `json:"fiber"`
	Lines     []commission.MobileLine `json:"mobile_lines"`
	Notes     string                  `json:"notes"`
	Status    string                  `json:"status"`
	CreatedBy string                  `json:"created_by"`
}

// UpdateStatusRequest is the body for status-only updates.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// DIRECTORY
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateClientRequest is the request to create a client.
type CreateClientRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CreatedBy string `json:"created_by"`
}

// RankingRowDTO is one employee's row on the monthly ranking.
type RankingRowDTO struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	TotalSales   int    `json:"total_sales"`
	ValidSales   int    `json:"valid_sales"`
	TotalScore   int    `json:"total_score"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// money2 rounds a decimal euro amount to the 2-digit display value.
func money2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func moneyPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := money2(*d)
	return &f
}

func toSaleDTO(s commission.Sale) SaleDTO {
	return SaleDTO{
		ID:        string(s.ID),
		ClientID:  string(s.ClientID),
		Company:   s.Company,
		PackType:  string(s.PackType),
		PackPrice: moneyPtr(s.PackPrice),
		Fiber:     s.Fiber,
		Lines:     s.Lines,
		Notes:     s.Notes,
		Status:    string(s.Status),
		Score:     s.Score,
		CreatedBy: string(s.CreatedBy),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

func toConfigDTO(cfg commission.Config) ConfigDTO {
	categories := cfg.Categories
	if categories == nil {
		categories = []commission.Category{}
	}
	return ConfigDTO{
		Year:            cfg.Month.Year,
		Month:           int(cfg.Month.Month),
		ConfigExists:    true,
		Threshold:       cfg.Threshold,
		Retroactive:     cfg.Retroactive,
		RetroactiveFrom: cfg.RetroactiveFrom,
		Categories:      categories,
		Version:         cfg.Version,
	}
}

func toSummaryDTO(sum commission.MonthlySummary) SummaryDTO {
	dto := SummaryDTO{
		Year:                sum.Month.Year,
		Month:               int(sum.Month.Month),
		ConfigExists:        sum.ConfigExists,
		Threshold:           sum.Threshold,
		TotalSales:          sum.TotalSales,
		ValidSales:          sum.ValidSales,
		CommissionableSales: sum.CommissionableSales,
		TotalCommission:     money2(sum.TotalCommission),
		Employees:           []EmployeeSummaryDTO{},
	}
	for _, e := range sum.Employees {
		dto.Employees = append(dto.Employees, EmployeeSummaryDTO{
			EmployeeID:          string(e.EmployeeID),
			EmployeeName:        e.EmployeeName,
			TotalSales:          e.TotalSales,
			ValidSales:          e.ValidSales,
			ThresholdReached:    e.ThresholdReached,
			CommissionableSales: e.CommissionableSales,
			TotalCommission:     money2(e.TotalCommission),
			Error:               e.Err,
		})
	}
	return dto
}

func toEmployeeDetailDTO(b commission.EmployeeBreakdown, configExists bool, clientNames map[commission.ClientID]string) EmployeeDetailDTO {
	dto := EmployeeDetailDTO{
		EmployeeID:          string(b.EmployeeID),
		EmployeeName:        b.EmployeeName,
		Year:                b.Month.Year,
		Month:               int(b.Month.Month),
		ConfigExists:        configExists,
		TotalSales:          b.TotalSales,
		ValidSales:          b.ValidSales,
		ThresholdReached:    b.ThresholdReached,
		CommissionableSales: b.CommissionableSales,
		TotalCommission:     money2(b.TotalCommission),
		Sales:               []SaleBreakdownDTO{},
	}
	for _, r := range b.Sales {
		dto.Sales = append(dto.Sales, SaleBreakdownDTO{
			SaleID:         string(r.Sale.ID),
			SaleNum:        r.Seq,
			ClientID:       string(r.Sale.ClientID),
			ClientName:     clientNames[r.Sale.ClientID],
			Company:        r.Sale.Company,
			PackType:       string(r.Sale.PackType),
			PackPrice:      moneyPtr(r.Sale.PackPrice),
			Status:         string(r.Sale.Status),
			IsValid:        !r.Sale.Status.IsCancelled(),
			Score:          r.Sale.Score,
			Commissionable: r.Commissionable,
			Category:       r.Category,
			Commission:     money2(r.Commission),
			Reason:         r.Reason,
		})
	}
	return dto
}
