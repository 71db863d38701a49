package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/validate"
)

func TestNewControllerDefaultsToIgnore(t *testing.T) {
	ctrl := NewController(3)
	assert.Equal(t, []models.Role{models.RoleIgnore, models.RoleIgnore, models.RoleIgnore}, ctrl.Roles)
	assert.False(t, ctrl.IsComplete(validate.DefaultRules()))
}

func TestSetRoleValidation(t *testing.T) {
	ctrl := NewController(2)
	require.NoError(t, ctrl.SetRole(0, models.RolePlace))
	assert.Error(t, ctrl.SetRole(5, models.RoleValue), "out-of-range column")
	assert.Error(t, ctrl.SetRole(1, models.Role("Banana")), "unknown role")
}

func TestSetRolesLengthMustMatch(t *testing.T) {
	ctrl := NewController(3)
	assert.Error(t, ctrl.SetRoles([]models.Role{models.RolePlace}))
	require.NoError(t, ctrl.SetRoles([]models.Role{models.RolePlace, models.RoleValue, models.RoleDate}))
	assert.Equal(t, models.RoleValue, ctrl.Roles[1])
}

func TestCompletionGate(t *testing.T) {
	rules := validate.DefaultRules()

	cases := []struct {
		name       string
		roles      []models.Role
		additional AdditionalFields
		complete   bool
	}{
		{
			name:     "nothing mapped",
			roles:    []models.Role{models.RoleIgnore, models.RoleIgnore, models.RoleIgnore},
			complete: false,
		},
		{
			name:     "all required mapped",
			roles:    []models.Role{models.RolePlace, models.RoleValue, models.RoleDate},
			complete: true,
		},
		{
			name:     "value missing",
			roles:    []models.Role{models.RolePlace, models.RoleIgnore, models.RoleDate},
			complete: false,
		},
		{
			name:       "place and date via additional fields",
			roles:      []models.Role{models.RoleIgnore, models.RoleValue, models.RoleIgnore},
			additional: AdditionalFields{Place: "Leeds", Date: "2023-01-01"},
			complete:   true,
		},
		{
			name:       "whitespace additional field does not satisfy",
			roles:      []models.Role{models.RoleIgnore, models.RoleValue, models.RoleDate},
			additional: AdditionalFields{Place: "   "},
			complete:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := NewController(3)
			require.NoError(t, ctrl.SetRoles(tc.roles))
			ctrl.Additional = tc.additional

			status := ctrl.Completion(rules)
			assert.Equal(t, tc.complete, status.AllSatisfied())
			assert.Equal(t, tc.complete, ctrl.IsComplete(rules))
		})
	}
}

func TestCompletionTracksPerField(t *testing.T) {
	ctrl := NewController(2)
	require.NoError(t, ctrl.SetRoles([]models.Role{models.RoleValue, models.RoleIgnore}))

	status := ctrl.Completion(validate.DefaultRules())
	assert.True(t, status["value"])
	assert.False(t, status["place"])
	assert.False(t, status["date"])
}

func TestDuplicateRoles(t *testing.T) {
	ctrl := NewController(4)
	require.NoError(t, ctrl.SetRoles([]models.Role{models.RolePlace, models.RolePlace, models.RoleValue, models.RoleValue}))

	// Multiple Value columns are normal; duplicated Place is worth a warning.
	assert.Equal(t, []models.Role{models.RolePlace}, ctrl.DuplicateRoles())
}
