/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the sale scoring and commission engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the domain
  logic in the commission package.

ENDPOINTS:
  Commissions:
    GET  /api/commissions/config/{year}/{month}             Month config
    PUT  /api/commissions/config/{year}/{month}             Upsert config
    POST /api/commissions/config/{year}/{month}/duplicate   Copy to another month
    GET  /api/commissions/summary/{year}/{month}            Organization summary
    GET  /api/commissions/employee/{id}/{year}/{month}      Per-sale breakdown
    GET  /api/commissions/categories/defaults               Stock categories

  Sales:
    POST /api/sales                 Record a sale (scored on write)
    GET  /api/sales                 List sales
    GET  /api/sales/statuses        Valid status values
    GET  /api/sales/{id}            Get one sale
    PUT  /api/sales/{id}            Update a sale (rescored)
    PUT  /api/sales/{id}/status     Update status only (rescored)

  Directory:
    GET/POST /api/employees, /api/clients

  Ranking:
    GET  /api/ranking/{year}/{month}   Per-employee sale/score totals

  Scenarios:
    GET  /api/scenarios, POST /api/scenarios/load, POST /api/scenarios/reset

ERROR HANDLING:
  Domain errors map to HTTP status in one place (statusFor):
  - 400: validation errors, malformed input
  - 404: missing sale/employee/config (where absence IS an error)
  - 409: duplicate target month, optimistic version conflicts
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hipnotik/commission-engine/commission"
	"github.com/hipnotik/commission-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Aggregator *commission.Aggregator
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:      store,
		Aggregator: commission.NewAggregator(store, store, store),
	}
}

// =============================================================================
// COMMISSION CONFIG
// =============================================================================

// GetConfig returns the month's config, or a config_exists=false marker.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	m, ok := monthParam(w, r)
	if !ok {
		return
	}

	cfg, err := h.Store.GetConfig(r.Context(), m)
	if err != nil {
		if commission.IsNotFound(err) {
			// Not configured is a valid state, not a failure.
			writeJSON(w, http.StatusOK, ConfigDTO{
				Year: m.Year, Month: int(m.Month),
				ConfigExists: false, Categories: []commission.Category{},
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load config", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(*cfg))
}

// PutConfig validates and upserts the month's config.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	m, ok := monthParam(w, r)
	if !ok {
		return
	}

	var req PutConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg := commission.Config{
		Month:           m,
		Threshold:       req.Threshold,
		Retroactive:     req.Retroactive,
		RetroactiveFrom: req.RetroactiveFrom,
		Categories:      req.Categories,
		Version:         req.Version,
	}
	if err := h.Store.PutConfig(r.Context(), cfg); err != nil {
		writeError(w, statusFor(err), "Failed to save config", err)
		return
	}

	saved, err := h.Store.GetConfig(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload config", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(*saved))
}

// DuplicateConfig copies the month's config into the target month.
// POST /api/commissions/config/{year}/{month}/duplicate?target_year=&target_month=[&overwrite=true]
func (h *Handler) DuplicateConfig(w http.ResponseWriter, r *http.Request) {
	source, ok := monthParam(w, r)
	if !ok {
		return
	}

	targetYear, err1 := strconv.Atoi(r.URL.Query().Get("target_year"))
	targetMonth, err2 := strconv.Atoi(r.URL.Query().Get("target_month"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "target_year and target_month are required", nil)
		return
	}
	target, err := commission.NewMonth(targetYear, targetMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target month", err)
		return
	}
	overwrite := r.URL.Query().Get("overwrite") == "true"

	cfg, err := h.Store.DuplicateConfig(r.Context(), source, target, overwrite)
	if err != nil {
		writeError(w, statusFor(err), "Failed to duplicate config", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConfigDTO(*cfg))
}

// DefaultCategories returns the stock category catalog.
func (h *Handler) DefaultCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, commission.DefaultCategories())
}

// =============================================================================
// SUMMARY AND BREAKDOWN
// =============================================================================

// GetSummary returns the organization summary for a month.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	m, ok := monthParam(w, r)
	if !ok {
		return
	}

	sum, err := h.Aggregator.Summary(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(sum))
}

// GetEmployeeDetail returns one employee's full per-sale breakdown.
func (h *Handler) GetEmployeeDetail(w http.ResponseWriter, r *http.Request) {
	m, ok := monthParam(w, r)
	if !ok {
		return
	}
	id := commission.EmployeeID(chi.URLParam(r, "id"))

	breakdown, configExists, err := h.Aggregator.EmployeeDetail(r.Context(), id, m)
	if err != nil {
		writeError(w, statusFor(err), "Failed to compute breakdown", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDetailDTO(breakdown, configExists, h.clientNames(r)))
}

// clientNames builds the client label map for breakdowns. A failed lookup
// degrades to unlabeled rows rather than failing the report.
func (h *Handler) clientNames(r *http.Request) map[commission.ClientID]string {
	names := make(map[commission.ClientID]string)
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		return names
	}
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names
}

// =============================================================================
// SALES
// =============================================================================

// CreateSale records a new sale. The score is computed on write.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.Store.SaveSale(r.Context(), saleFromRequest(req, ""))
	if err != nil {
		writeError(w, statusFor(err), "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// UpdateSale replaces a sale's attributes and rescores it.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetSale(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sale", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}

	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale := saleFromRequest(req, id)
	sale.CreatedAt = existing.CreatedAt
	if sale.CreatedBy == "" {
		sale.CreatedBy = existing.CreatedBy
	}

	saved, err := h.Store.SaveSale(r.Context(), sale)
	if err != nil {
		writeError(w, statusFor(err), "Failed to update sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(saved))
}

// UpdateSaleStatus changes a sale's status only; the score follows.
func (h *Handler) UpdateSaleStatus(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.Store.UpdateSaleStatus(r.Context(), id, commission.SaleStatus(req.Status))
	if err != nil {
		writeError(w, statusFor(err), "Failed to update status", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// GetSale returns a single sale.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	sale, err := h.Store.GetSale(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sale", err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// ListSales returns all sales, newest first.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Store.ListSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListSaleStatuses returns the valid status values.
func (h *Handler) ListSaleStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, commission.SaleStatuses())
}

func saleFromRequest(req SaleRequest, id commission.SaleID) commission.Sale {
	sale := commission.Sale{
		ID:        id,
		ClientID:  commission.ClientID(req.ClientID),
		Company:   req.Company,
		PackType:  commission.PackType(req.PackType),
		Fiber:     req.Fiber,
		Lines:     req.Lines,
		Notes:     req.Notes,
		Status:    commission.SaleStatus(req.Status),
		CreatedBy: commission.EmployeeID(req.CreatedBy),
	}
	if req.PackPrice != nil {
		d := decimal.NewFromFloat(*req.PackPrice)
		sale.PackPrice = &d
	}
	return sale
}

// =============================================================================
// DIRECTORY
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{ID: string(e.ID), Name: e.Name, Email: e.Email}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a directory entry.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	emp := commission.Employee{ID: commission.EmployeeID(req.ID), Name: req.Name, Email: req.Email}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, EmployeeDTO{ID: req.ID, Name: req.Name, Email: req.Email})
}

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = ClientDTO{ID: string(c.ID), Name: c.Name, Phone: c.Phone, CreatedBy: string(c.CreatedBy)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateClient creates a client reference.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	client := commission.Client{
		ID:        commission.ClientID(uuid.NewString()),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedBy: commission.EmployeeID(req.CreatedBy),
	}
	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, ClientDTO{ID: string(client.ID), Name: client.Name, Phone: client.Phone})
}

// =============================================================================
// RANKING
// =============================================================================

// GetRanking returns per-employee sale counts and score totals for a month,
// best first.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	m, ok := monthParam(w, r)
	if !ok {
		return
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	salesByEmployee, err := h.Store.SalesByMonth(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sales", err)
		return
	}

	rows := make([]RankingRowDTO, 0, len(employees))
	for _, emp := range employees {
		row := RankingRowDTO{EmployeeID: string(emp.ID), EmployeeName: emp.Name}
		for _, s := range salesByEmployee[emp.ID] {
			row.TotalSales++
			if !s.Status.IsCancelled() {
				row.ValidSales++
			}
			row.TotalScore += s.Score
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ValidSales != rows[j].ValidSales {
			return rows[i].ValidSales > rows[j].ValidSales
		}
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].EmployeeName < rows[j].EmployeeName
	})
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

// monthParam parses {year}/{month} path params, writing a 400 on failure.
func monthParam(w http.ResponseWriter, r *http.Request) (commission.Month, bool) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	monthNum, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "year and month must be integers", nil)
		return commission.Month{}, false
	}
	m, err := commission.NewMonth(year, monthNum)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return commission.Month{}, false
	}
	return m, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case commission.IsConflict(err):
		return http.StatusConflict
	case commission.IsNotFound(err):
		return http.StatusNotFound
	case commission.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
