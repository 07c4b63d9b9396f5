/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	stand data for testing and demos. Each scenario creates employees,
	clients, sales, and a commission config that demonstrate specific
	engine behavior.

AVAILABLE SCENARIOS:

	stand-retro:     Threshold 5, retroactive from sale #1 - the classic
	                 "everything commissions once you cross" setup
	stand-strict:    Threshold 5, non-retroactive - only sales after the
	                 crossing commission

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employees and clients
 3. Record sales (scored on write, spread across the current month)
 4. Save the month's commission config

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - commission/category.go: DefaultCategories used as the demo catalog
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hipnotik/commission-engine/commission"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "stand-retro",
		Name:        "Retroactive Stand",
		Description: "Three employees, threshold 5, retroactive from sale #1",
	},
	{
		ID:          "stand-strict",
		Name:        "Strict Threshold Stand",
		Description: "Three employees, threshold 5, no retroactivity",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ID {
	case "stand-retro":
		err = h.loadStandScenario(ctx, true)
	case "stand-strict":
		err = h.loadStandScenario(ctx, false)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// LOADERS
// =============================================================================

// loadStandScenario seeds a three-employee stand for the current month.
// Laura crosses the threshold, Marco lands exactly on it, Sofia stays below.
func (h *Handler) loadStandScenario(ctx context.Context, retroactive bool) error {
	now := time.Now().UTC()
	month, err := commission.NewMonth(now.Year(), int(now.Month()))
	if err != nil {
		return err
	}

	employees := []commission.Employee{
		{ID: "emp-laura", Name: "Laura Pérez", Email: "laura@stand.example"},
		{ID: "emp-marco", Name: "Marco Ruiz", Email: "marco@stand.example"},
		{ID: "emp-sofia", Name: "Sofía García", Email: "sofia@stand.example"},
	}
	for _, e := range employees {
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	clients := []commission.Client{
		{ID: "cli-1", Name: "Carmen Díaz", CreatedBy: "emp-laura"},
		{ID: "cli-2", Name: "Javier Moreno", CreatedBy: "emp-laura"},
		{ID: "cli-3", Name: "Lucía Fernández", CreatedBy: "emp-marco"},
		{ID: "cli-4", Name: "Pedro Ortega", CreatedBy: "emp-sofia"},
	}
	for _, c := range clients {
		if err := h.Store.SaveClient(ctx, c); err != nil {
			return err
		}
	}

	price := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}
	base := month.Start().Add(9 * time.Hour)
	n := 0
	record := func(by commission.EmployeeID, client commission.ClientID, pack commission.PackType,
		p *decimal.Decimal, fiber *commission.Fiber, lines []commission.MobileLine, status commission.SaleStatus) error {
		n++
		_, err := h.Store.SaveSale(ctx, commission.Sale{
			ClientID:  client,
			Company:   "Movistar",
			PackType:  pack,
			PackPrice: p,
			Fiber:     fiber,
			Lines:     lines,
			Status:    status,
			CreatedBy: by,
			CreatedAt: base.Add(time.Duration(n) * time.Hour),
		})
		return err
	}

	fiber600 := &commission.Fiber{SpeedMbps: 600}
	fiber1000 := &commission.Fiber{SpeedMbps: 1000}
	twoLines := []commission.MobileLine{{GBData: 50}, {GBData: 50}}

	// Laura: 6 sales, crosses a threshold of 5.
	seeds := []error{
		record("emp-laura", "cli-1", commission.PackFibraMovil, price("65"), fiber600, twoLines, commission.StatusInstalado),
		record("emp-laura", "cli-2", commission.PackFibraMovil, price("45"), fiber600, twoLines[:1], commission.StatusFinalizado),
		record("emp-laura", "cli-1", commission.PackSoloFibra, price("35"), fiber1000, nil, commission.StatusInstalado),
		record("emp-laura", "cli-2", commission.PackSoloMovil, price("20"), nil, twoLines[:1], commission.StatusCancelado),
		record("emp-laura", "cli-1", commission.PackFibraMovilTV, price("85"), fiber1000, twoLines, commission.StatusInstalado),
		record("emp-laura", "cli-2", commission.PackSoloMovil, price("25"), nil, twoLines[:1], commission.StatusInstalado),

		// Marco: exactly 5 sales, mixed statuses.
		record("emp-marco", "cli-3", commission.PackFibraMovil, price("62"), fiber600, twoLines, commission.StatusInstalado),
		record("emp-marco", "cli-3", commission.PackSoloFibra, price("32"), fiber600, nil, commission.StatusEnProceso),
		record("emp-marco", "cli-3", commission.PackSoloMovil, price("18"), nil, twoLines[:1], commission.StatusInstalado),
		record("emp-marco", "cli-3", commission.PackFibraMovil, price("55"), fiber600, twoLines, commission.StatusIncidencia),
		record("emp-marco", "cli-3", commission.PackFibraMovilTV, price("90"), fiber1000, twoLines, commission.StatusFinalizado),

		// Sofia: 3 sales, below the threshold.
		record("emp-sofia", "cli-4", commission.PackSoloFibra, price("38"), fiber600, nil, commission.StatusInstalado),
		record("emp-sofia", "cli-4", commission.PackSoloMovil, price("22"), nil, twoLines[:1], commission.StatusInstalado),
		record("emp-sofia", "cli-4", commission.PackFibraMovil, price("58"), fiber600, twoLines, commission.StatusRegistrado),
	}
	for _, err := range seeds {
		if err != nil {
			return err
		}
	}

	cfg := commission.Config{
		Month:           month,
		Threshold:       5,
		Retroactive:     retroactive,
		RetroactiveFrom: 1,
		Categories:      commission.DefaultCategories(),
	}
	if !retroactive {
		cfg.RetroactiveFrom = 0
	}
	return h.Store.PutConfig(ctx, cfg)
}
