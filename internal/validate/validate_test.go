package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

func mustParse(t *testing.T, data string) *csvparse.RawTable {
	t.Helper()
	table, err := csvparse.Parse("test.csv", "", strings.NewReader(data))
	require.NoError(t, err)
	return table
}

func ptr(f float64) *float64 { return &f }

func TestSchemaRequired(t *testing.T) {
	table := mustParse(t, "Area,Count\nLeeds,10\n,20\n")
	roles := []models.Role{models.RolePlace, models.RoleValue}

	report := Schema(table, roles, DefaultRules())

	assert.Equal(t, []string{models.ViolationRequired}, report.CellErrors[1]["Area"])
	assert.Equal(t, []int{1}, report.ErrorRows)
	assert.Equal(t, 1, report.Summary["Required value missing"])
}

func TestSchemaNumberTypeAndBounds(t *testing.T) {
	table := mustParse(t, "Count\nten\n5\n50\n\"1,000\"\n")
	roles := []models.Role{models.RoleValue}
	rules := SchemaRules{
		models.RoleValue: {Required: true, Type: TypeNumber, Min: ptr(10), Max: ptr(100)},
	}

	report := Schema(table, roles, rules)

	assert.Equal(t, []string{models.ViolationExpectedNumber}, report.CellErrors[0]["Count"])
	assert.Equal(t, []string{"Below minimum (10)"}, report.CellErrors[1]["Count"])
	assert.Empty(t, report.CellErrors[2])
	assert.Equal(t, []string{"Above maximum (100)"}, report.CellErrors[3]["Count"])
	assert.Equal(t, 1, report.Summary["Wrong data type"])
	assert.Equal(t, 1, report.Summary["Below minimum"])
	assert.Equal(t, 1, report.Summary["Above maximum"])
}

func TestSchemaDateType(t *testing.T) {
	table := mustParse(t, "Date\n01/02/2023\nyesterday\n2023\n")
	roles := []models.Role{models.RoleDate}

	report := Schema(table, roles, DefaultRules())

	assert.NotContains(t, report.CellErrors, 0)
	assert.Equal(t, []string{models.ViolationExpectedDate}, report.CellErrors[1]["Date"])
	// A bare year takes the year fallback and passes.
	assert.NotContains(t, report.CellErrors, 2)
}

func TestSchemaEnum(t *testing.T) {
	table := mustParse(t, "Period\nmonthly\nweekly\nhourly\n")
	roles := []models.Role{models.RolePeriod}
	rules := SchemaRules{
		models.RolePeriod: {Type: TypeString, Enum: []string{"monthly", "weekly"}},
	}

	report := Schema(table, roles, rules)

	assert.NotContains(t, report.CellErrors, 0)
	assert.Equal(t, []string{models.ViolationNotInAllowedSet}, report.CellErrors[2]["Period"])
}

func TestSchemaUniqueCaseInsensitive(t *testing.T) {
	table := mustParse(t, "Name\nLeeds\nleeds\nYork\nLEEDS\n")
	roles := []models.Role{models.RoleName}
	rules := SchemaRules{
		models.RoleName: {Type: TypeString, Unique: true},
	}

	report := Schema(table, roles, rules)

	// First occurrence clean, every later one flagged.
	assert.NotContains(t, report.CellErrors, 0)
	assert.Equal(t, []string{models.ViolationDuplicateValue}, report.CellErrors[1]["Name"])
	assert.NotContains(t, report.CellErrors, 2)
	assert.Equal(t, []string{models.ViolationDuplicateValue}, report.CellErrors[3]["Name"])
	assert.Equal(t, 2, report.Summary["Duplicate value"])
}

func TestSchemaAccumulatesViolations(t *testing.T) {
	table := mustParse(t, "Count\nabc\nabc\n")
	roles := []models.Role{models.RoleValue}
	rules := SchemaRules{
		models.RoleValue: {Required: true, Type: TypeNumber, Unique: true, Enum: []string{"1"}},
	}

	report := Schema(table, roles, rules)

	// Type + enum on row 0; type + enum + unique on row 1, not short-circuited.
	assert.Len(t, report.CellErrors[0]["Count"], 2)
	assert.Len(t, report.CellErrors[1]["Count"], 3)
}

func TestSchemaRerunIsDeterministic(t *testing.T) {
	table := mustParse(t, "Area,Count,Date\nLeeds,10,01/02/2023\n,abc,bad\n")
	roles := []models.Role{models.RolePlace, models.RoleValue, models.RoleDate}
	rules := DefaultRules()

	first := Schema(table, roles, rules)
	second := Schema(table, roles, rules)
	assert.Equal(t, first, second)
}

func TestStructuralHeaderChecks(t *testing.T) {
	table := mustParse(t, "Area,,Area,Count\nLeeds,1,2,3\n")
	report := Structural(table)

	assert.Equal(t, 1, report.Summary["Column name missing"])
	assert.Equal(t, 1, report.Summary["Duplicate column name"])
}

func TestStructuralRowChecks(t *testing.T) {
	table := mustParse(t, "a,b,c\n1,2,3\n,,\n1,2\n1,2,3,4\n")
	report := Structural(table)

	assert.Equal(t, []string{models.ViolationEmptyRow}, report.CellErrors[1][models.RowLevelColumn])
	assert.Equal(t, []string{models.ViolationMissingCell}, report.CellErrors[2][models.RowLevelColumn])
	assert.Equal(t, []string{models.ViolationExtraCell}, report.CellErrors[3][models.RowLevelColumn])
	assert.Equal(t, []int{1, 2, 3}, report.ErrorRows)
	assert.True(t, report.HasErrorRow(1))
	assert.False(t, report.HasErrorRow(0))
}

func TestStructuralNumericInference(t *testing.T) {
	// 3 of 4 non-blank values numeric = 75%, above the 70% threshold.
	table := mustParse(t, "Count\n1\n2\n3\nabc\n")
	report := Structural(table)
	assert.Equal(t, []string{models.ViolationExpectedNumber}, report.CellErrors[3]["Count"])

	// 50% numeric stays below the threshold; nothing flagged.
	table = mustParse(t, "Mixed\n1\nabc\n")
	report = Structural(table)
	assert.NotContains(t, report.CellErrors, 0)
	assert.NotContains(t, report.CellErrors, 1)
}

func TestRulesValidate(t *testing.T) {
	bad := SchemaRules{models.RoleValue: {Type: "decimal"}}
	assert.Error(t, bad.Validate())

	bad = SchemaRules{models.RoleValue: {Type: TypeNumber, Min: ptr(10), Max: ptr(1)}}
	assert.Error(t, bad.Validate())

	bad = SchemaRules{models.RoleIgnore: {}}
	assert.Error(t, bad.Validate())

	assert.NoError(t, DefaultRules().Validate())
}

func TestRulesCheckValue(t *testing.T) {
	rules := SchemaRules{
		models.RoleDate:  {Type: TypeDate},
		models.RoleValue: {Type: TypeNumber, Min: ptr(0), Max: ptr(100)},
		models.RoleName:  {Type: TypeString, Enum: []string{"A", "B"}},
	}

	assert.NoError(t, rules.CheckValue(models.RoleDate, "01/02/2023"))
	assert.NoError(t, rules.CheckValue(models.RoleDate, "2023"))
	assert.Error(t, rules.CheckValue(models.RoleDate, "gibberish"))

	assert.NoError(t, rules.CheckValue(models.RoleValue, "42"))
	assert.Error(t, rules.CheckValue(models.RoleValue, "abc"))
	assert.Error(t, rules.CheckValue(models.RoleValue, "-1"))
	assert.Error(t, rules.CheckValue(models.RoleValue, "101"))

	assert.NoError(t, rules.CheckValue(models.RoleName, "A"))
	assert.Error(t, rules.CheckValue(models.RoleName, "C"))

	// Fields without a configured rule are unrestricted.
	assert.NoError(t, rules.CheckValue(models.RolePeriod, "anything"))
}

func TestRequiredRoles(t *testing.T) {
	roles := DefaultRules().RequiredRoles()
	assert.ElementsMatch(t, []models.Role{models.RoleValue, models.RolePlace, models.RoleDate}, roles)
}
