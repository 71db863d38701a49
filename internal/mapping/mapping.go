// Package mapping tracks the contributor-assigned logical role for each raw
// CSV column and derives the required-field completion status that gates
// submission.
package mapping

import (
	"fmt"
	"strings"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/validate"
)

// AdditionalFields are the manually entered "applies to every row" values. A
// mapped, non-empty cell always wins over these.
type AdditionalFields struct {
	Name   string `json:"name,omitempty"`
	Place  string `json:"place,omitempty"`
	Date   string `json:"date,omitempty"`
	Period string `json:"period,omitempty"`
}

// ValueFor returns the manual value for a role, or "" when the role has no
// additional-field counterpart (Value never does).
func (f AdditionalFields) ValueFor(role models.Role) string {
	switch role {
	case models.RoleName:
		return strings.TrimSpace(f.Name)
	case models.RolePlace:
		return strings.TrimSpace(f.Place)
	case models.RoleDate:
		return strings.TrimSpace(f.Date)
	case models.RolePeriod:
		return strings.TrimSpace(f.Period)
	default:
		return ""
	}
}

// Controller holds the role assigned to each column, index-aligned with the
// table headers, plus the additional-field overrides.
type Controller struct {
	Roles      []models.Role    `json:"roles"`
	Additional AdditionalFields `json:"additional_fields"`
}

// NewController returns a controller with every column set to Ignore.
func NewController(columns int) *Controller {
	roles := make([]models.Role, columns)
	for i := range roles {
		roles[i] = models.RoleIgnore
	}
	return &Controller{Roles: roles}
}

// SetRole assigns a role to one column. Mapping two columns to the same role
// is not blocked; see DuplicateRoles.
func (c *Controller) SetRole(column int, role models.Role) error {
	if column < 0 || column >= len(c.Roles) {
		return fmt.Errorf("column index %d out of range (table has %d columns)", column, len(c.Roles))
	}
	if !models.ValidRoles[role] {
		return fmt.Errorf("unknown role %q", role)
	}
	c.Roles[column] = role
	return nil
}

// SetRoles replaces the whole assignment. The slice length must match the
// column count.
func (c *Controller) SetRoles(roles []models.Role) error {
	if len(roles) != len(c.Roles) {
		return fmt.Errorf("expected %d roles, got %d", len(c.Roles), len(roles))
	}
	for _, role := range roles {
		if !models.ValidRoles[role] {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	copy(c.Roles, roles)
	return nil
}

// DuplicateRoles lists the single-column roles (Place, Date, Name, Period)
// that are currently mapped to more than one column. Duplicates are allowed
// (last one wins at projection time) but worth warning about.
func (c *Controller) DuplicateRoles() []models.Role {
	counts := make(map[models.Role]int)
	for _, role := range c.Roles {
		counts[role]++
	}
	var out []models.Role
	for _, role := range []models.Role{models.RolePlace, models.RoleDate, models.RolePeriod, models.RoleName} {
		if counts[role] > 1 {
			out = append(out, role)
		}
	}
	return out
}

// HasRole reports whether any column carries the role.
func (c *Controller) HasRole(role models.Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Completion derives, for each required field in the rules, whether it is
// satisfied via a mapping or a non-empty additional field.
func (c *Controller) Completion(rules validate.SchemaRules) models.CompletionStatus {
	status := make(models.CompletionStatus)
	for _, role := range rules.RequiredRoles() {
		status[strings.ToLower(string(role))] = c.HasRole(role) || c.Additional.ValueFor(role) != ""
	}
	return status
}

// IsComplete reports whether every required field is covered.
func (c *Controller) IsComplete(rules validate.SchemaRules) bool {
	return c.Completion(rules).AllSatisfied()
}
