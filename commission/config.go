/*
config.go - Per-month commission configuration

PURPOSE:
  A Config holds everything an admin sets for one (year, month): the sale
  threshold, the retroactivity rules, and the ordered category list.
  Absence of a config is a valid, distinguishable state ("not configured"),
  never conflated with an empty-but-configured month.

LIFECYCLE:
  - Created/edited per month by an administrator
  - Validated at SAVE time, not at computation time: a config that made it
    into storage is trusted by the resolver and aggregator
  - May be duplicated into another month (deep copy, fresh category IDs);
    duplication refuses to overwrite an existing target unless asked

CONCURRENCY:
  Two admins editing the same month are serialized with optimistic version
  checks: writes carry the version they were based on, and a mismatch is
  rejected with ErrConcurrentModification. Version 0 means "no expectation"
  so first writes and forced saves still work.

VALIDATION:
  Struct-level rules run through go-playground/validator; the cross-field
  rules the tag language can't express (min > max bounds, percentage range
  on a decimal) are checked explicitly afterwards.

SEE ALSO:
  - category.go: Category shape and matching
  - resolve.go: Consumes Threshold/Retroactive/RetroactiveFrom
*/
package commission

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is the commission configuration for one month.
type Config struct {
	Month Month

	// Threshold is the minimum count of sales (any status) an employee must
	// record in the month before any commission accrues.
	Threshold int `validate:"gte=0"`

	// Retroactive controls what happens to sales recorded before the
	// threshold was crossed. When true, all sales from RetroactiveFrom
	// (1-based sequence number) onward commission once the threshold is
	// reached. RetroactiveFrom is only meaningful when Retroactive is set.
	Retroactive     bool
	RetroactiveFrom int `validate:"gte=0"`

	// Categories in admin-configured order. Order is the matching tie-break.
	Categories []Category

	// Version increments on every successful write. Used for optimistic
	// concurrency on config updates.
	Version int
}

var validate = validator.New()

// Validate checks the config for save-time errors. Computation code never
// re-validates; rejecting bad definitions here keeps the engine total.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Retroactive && c.RetroactiveFrom < 1 {
		return fmt.Errorf("%w: retroactive_from must be >= 1 when retroactive", ErrInvalidConfig)
	}
	for i, cat := range c.Categories {
		if err := validateCategory(i, cat); err != nil {
			return err
		}
	}
	return nil
}

func validateCategory(index int, c Category) error {
	if c.Name == "" {
		return &InvalidCategoryError{Index: index, Name: c.Name, Detail: "name is required"}
	}
	switch c.CommissionType {
	case CommissionFixed, CommissionPercentage:
	default:
		return &InvalidCategoryError{Index: index, Name: c.Name,
			Detail: fmt.Sprintf("unknown commission type %q", c.CommissionType)}
	}
	if c.CommissionValue.IsNegative() {
		return &InvalidCategoryError{Index: index, Name: c.Name, Detail: "commission value must not be negative"}
	}
	if c.CommissionType == CommissionPercentage &&
		c.CommissionValue.GreaterThan(decimal.NewFromInt(100)) {
		return &InvalidCategoryError{Index: index, Name: c.Name, Detail: "percentage must be within [0, 100]"}
	}
	if c.MinPrice != nil && c.MinPrice.IsNegative() {
		return &InvalidCategoryError{Index: index, Name: c.Name, Detail: "min_price must not be negative"}
	}
	if c.MinPrice != nil && c.MaxPrice != nil && c.MinPrice.GreaterThan(*c.MaxPrice) {
		return &InvalidCategoryError{Index: index, Name: c.Name, Detail: "min_price exceeds max_price"}
	}
	for _, pt := range c.PackTypes {
		if !IsValidPackType(pt) {
			return &InvalidCategoryError{Index: index, Name: c.Name,
				Detail: fmt.Sprintf("unknown pack type %q", pt)}
		}
	}
	return nil
}

// Clone returns a deep copy of the config, re-keyed to target, with fresh
// category identities and version reset. This is the duplication payload;
// the store decides whether the target may be written.
func (c Config) Clone(target Month) Config {
	out := Config{
		Month:           target,
		Threshold:       c.Threshold,
		Retroactive:     c.Retroactive,
		RetroactiveFrom: c.RetroactiveFrom,
		Categories:      make([]Category, len(c.Categories)),
	}
	for i, cat := range c.Categories {
		out.Categories[i] = cat.Clone()
	}
	return out
}
