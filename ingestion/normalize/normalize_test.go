package normalize_test

import (
	"testing"
	"time"

	"sellthrough-backend/ingestion/normalize"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsValidEAN(t *testing.T) {
	assert.True(t, normalize.IsValidEAN("4006381333931"))
	assert.True(t, normalize.IsValidEAN(" 4006381333931 "))

	assert.False(t, normalize.IsValidEAN(""))
	assert.False(t, normalize.IsValidEAN("400638133393"))    // 12 digits
	assert.False(t, normalize.IsValidEAN("40063813339311"))  // 14 digits
	assert.False(t, normalize.IsValidEAN("40063813A3931"))   // letter
	assert.False(t, normalize.IsValidEAN("4006-381-33393"))  // separators
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "abc 123", normalize.NormalizeCode("  ABC   123  "))
	assert.Equal(t, "stabilo boss", normalize.NormalizeCode("Stabilo\tBoss"))
	assert.Equal(t, "", normalize.NormalizeCode("   "))
}

func TestParseAmount(t *testing.T) {
	got, err := normalize.ParseAmount("123.45")
	assert.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("123.45")))

	// Accounting notation negates
	got, err = normalize.ParseAmount("(123.45)")
	assert.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("-123.45")))

	// Thousands separators are tolerated
	got, err = normalize.ParseAmount("1,234.50")
	assert.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1234.50")))

	_, err = normalize.ParseAmount("")
	assert.Error(t, err)
	_, err = normalize.ParseAmount("abc")
	assert.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	got, err := normalize.ParseQuantity("5")
	assert.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = normalize.ParseQuantity("(3)")
	assert.NoError(t, err)
	assert.Equal(t, -3, got)

	got, err = normalize.ParseQuantity("-2")
	assert.NoError(t, err)
	assert.Equal(t, -2, got)

	_, err = normalize.ParseQuantity("2.5")
	assert.Error(t, err)
	_, err = normalize.ParseQuantity("many")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := normalize.ParseDate("2024-03-15")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = normalize.ParseDate("15/03/2024")
	assert.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())

	// Excel serial: 45366 days after 1899-12-30 is 2024-03-15
	got, err = normalize.ParseDate("45366")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = normalize.ParseDate("")
	assert.Error(t, err)
	_, err = normalize.ParseDate("not a date")
	assert.Error(t, err)
}

func TestDateParts(t *testing.T) {
	year, month, quarter := normalize.DateParts(time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2024, year)
	assert.Equal(t, 11, month)
	assert.Equal(t, 4, quarter)

	assert.Equal(t, 1, normalize.QuarterOf(1))
	assert.Equal(t, 1, normalize.QuarterOf(3))
	assert.Equal(t, 2, normalize.QuarterOf(4))
	assert.Equal(t, 4, normalize.QuarterOf(12))
}
