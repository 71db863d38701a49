package validate

import (
	"fmt"
	"strings"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/dates"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

// Field value types a rule can demand.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeDate   = "date"
)

// FieldRule is the declarative schema for one logical field.
type FieldRule struct {
	Required bool     `json:"required"`
	Type     string   `json:"type" binding:"omitempty,oneof=string number date"`
	Unique   bool     `json:"unique"`
	Enum     []string `json:"enum,omitempty"` // empty = unrestricted
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// SchemaRules maps logical field name to its rule.
type SchemaRules map[models.Role]FieldRule

// DefaultRules ships the stock contribute schema: Place, Date and Value
// required, Period optional.
func DefaultRules() SchemaRules {
	return SchemaRules{
		models.RolePlace:  {Required: true, Type: TypeString},
		models.RoleDate:   {Required: true, Type: TypeDate},
		models.RoleValue:  {Required: true, Type: TypeNumber},
		models.RolePeriod: {Required: false, Type: TypeString},
		models.RoleName:   {Required: false, Type: TypeString},
	}
}

// Validate sanity-checks a rule set supplied over the API.
func (r SchemaRules) Validate() error {
	for role, rule := range r {
		if !models.ValidRoles[role] || role == models.RoleIgnore {
			return fmt.Errorf("rules reference unknown logical field %q", role)
		}
		switch strings.ToLower(rule.Type) {
		case "", TypeString, TypeNumber, TypeDate:
		default:
			return fmt.Errorf("field %s has unknown type %q", role, rule.Type)
		}
		if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
			return fmt.Errorf("field %s has min %v greater than max %v", role, *rule.Min, *rule.Max)
		}
	}
	return nil
}

// CheckValue validates a single raw value against the rule for a logical
// field. The manual applies-to-every-row overrides bypass the per-cell pass,
// so they go through here instead.
func (r SchemaRules) CheckValue(role models.Role, value string) error {
	rule, ok := r[role]
	if !ok {
		return nil
	}
	switch strings.ToLower(rule.Type) {
	case TypeNumber:
		n, ok := csvparse.ParseNumber(value)
		if !ok {
			return fmt.Errorf("%s value %q is not a number", role, value)
		}
		if rule.Min != nil && n < *rule.Min {
			return fmt.Errorf("%s value %v is below the minimum (%v)", role, n, *rule.Min)
		}
		if rule.Max != nil && n > *rule.Max {
			return fmt.Errorf("%s value %v is above the maximum (%v)", role, n, *rule.Max)
		}
	case TypeDate:
		if _, ok := dates.Normalize(value); !ok {
			return fmt.Errorf("%s value %q is not a recognisable date", role, value)
		}
	}
	if len(rule.Enum) > 0 && !contains(rule.Enum, value) {
		return fmt.Errorf("%s value %q is not in the allowed set", role, value)
	}
	return nil
}

// RequiredRoles returns the logical fields the rule set marks required.
func (r SchemaRules) RequiredRoles() []models.Role {
	var out []models.Role
	for _, role := range []models.Role{models.RoleValue, models.RolePlace, models.RoleDate, models.RoleName, models.RolePeriod} {
		if rule, ok := r[role]; ok && rule.Required {
			out = append(out, role)
		}
	}
	return out
}
