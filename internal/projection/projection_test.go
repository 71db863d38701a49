package projection

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/mapping"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

func mustParse(t *testing.T, data string) *csvparse.RawTable {
	t.Helper()
	table, err := csvparse.Parse("test.csv", "", strings.NewReader(data))
	require.NoError(t, err)
	return table
}

func controller(t *testing.T, roles ...models.Role) *mapping.Controller {
	t.Helper()
	ctrl := mapping.NewController(len(roles))
	require.NoError(t, ctrl.SetRoles(roles))
	return ctrl
}

func TestProjectRowSplitting(t *testing.T) {
	table := mustParse(t, "Metric,A,B\nX,1,2\n")
	ctrl := controller(t, models.RoleName, models.RoleValue, models.RoleValue)
	datasetID := uuid.New()

	obs, err := Project(table, ctrl, datasetID)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "X - A", obs[0].Name)
	assert.Equal(t, float64(1), obs[0].Value)
	assert.Equal(t, "X - B", obs[1].Name)
	assert.Equal(t, float64(2), obs[1].Value)
	for _, o := range obs {
		assert.Equal(t, datasetID, o.DatasetID)
		assert.NotEqual(t, uuid.Nil, o.ID)
	}
}

func TestProjectSingleValueNaming(t *testing.T) {
	table := mustParse(t, "Metric,Count\nX,1\n,2\n")
	ctrl := controller(t, models.RoleName, models.RoleValue)

	obs, err := Project(table, ctrl, uuid.New())
	require.NoError(t, err)
	require.Len(t, obs, 2)

	// One Value column: the name cell stands alone; a blank name falls back
	// to the value-column header.
	assert.Equal(t, "X", obs[0].Name)
	assert.Equal(t, "Count", obs[1].Name)
}

func TestProjectNoNameColumnUsesHeader(t *testing.T) {
	table := mustParse(t, "Area,Count\nLeeds,1\n")
	ctrl := controller(t, models.RolePlace, models.RoleValue)

	obs, err := Project(table, ctrl, uuid.New())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "Count", obs[0].Name)
	assert.Equal(t, "Leeds", obs[0].PlaceUpload)
}

func TestProjectFailureAggregation(t *testing.T) {
	table := mustParse(t, "Count\n1\nabc\n3\nxyz\n5\n")
	ctrl := controller(t, models.RoleValue)

	obs, err := Project(table, ctrl, uuid.New())
	require.Error(t, err)
	assert.Nil(t, obs, "no partial batch on failure")

	var projErr *Error
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, []int{1, 3}, projErr.ErrorRows)
	require.Len(t, projErr.Messages, 2)
	assert.Equal(t, "Row 2: 'abc' is not a valid number.", projErr.Messages[0])
	assert.Equal(t, "Row 4: 'xyz' is not a valid number.", projErr.Messages[1])
}

func TestProjectDateNormalization(t *testing.T) {
	table := mustParse(t, "Date,Count\n01/02/2023,1\n")
	ctrl := controller(t, models.RoleDate, models.RoleValue)

	obs, err := Project(table, ctrl, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "2023-02-01", obs[0].Date)
	assert.Equal(t, "2023", obs[0].Year)
}

func TestProjectNoDateLeavesYearEmpty(t *testing.T) {
	table := mustParse(t, "Count\n1\n")
	ctrl := controller(t, models.RoleValue)

	obs, err := Project(table, ctrl, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, obs[0].Date)
	assert.Empty(t, obs[0].Year)
}

func TestProjectBadDateFailsRow(t *testing.T) {
	table := mustParse(t, "Date,Count\nnot-a-date,1\n")
	ctrl := controller(t, models.RoleDate, models.RoleValue)

	_, err := Project(table, ctrl, uuid.New())
	var projErr *Error
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, []int{0}, projErr.ErrorRows)
	assert.Contains(t, projErr.Messages[0], "not a valid date")
}

func TestProjectAdditionalFieldsFallback(t *testing.T) {
	table := mustParse(t, "Area,Count\nLeeds,1\n,2\n")
	ctrl := controller(t, models.RolePlace, models.RoleValue)
	ctrl.Additional = mapping.AdditionalFields{Place: "Yorkshire", Period: "2023", Date: "01/06/2023"}

	obs, err := Project(table, ctrl, uuid.New())
	require.NoError(t, err)
	require.Len(t, obs, 2)

	// Mapped value wins; the manual value only fills gaps.
	assert.Equal(t, "Leeds", obs[0].PlaceUpload)
	assert.Equal(t, "Yorkshire", obs[1].PlaceUpload)
	for _, o := range obs {
		assert.Equal(t, "2023", o.Period)
		assert.Equal(t, "2023-06-01", o.Date)
	}
}

func TestProjectThousandsSeparators(t *testing.T) {
	table := mustParse(t, "Count\n\"1,234\"\n")
	ctrl := controller(t, models.RoleValue)

	obs, err := Project(table, ctrl, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, float64(1234), obs[0].Value)
}

func TestProjectRequiresValueColumn(t *testing.T) {
	table := mustParse(t, "Area\nLeeds\n")
	ctrl := controller(t, models.RolePlace)

	_, err := Project(table, ctrl, uuid.New())
	assert.Error(t, err)
}
