package finalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardPassesWhenFactsSourced(t *testing.T) {
	guard := &Guard{}
	sources := []string{`{"tool":"calendar.list","resultSummary":"Toplantı 2026-09-01 14:00"}`}

	result := guard.Check(sources, "Toplantın 14:00'te, 2026-09-01 tarihinde.")

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

func TestGuardFlagsInventedTime(t *testing.T) {
	guard := &Guard{}
	sources := []string{"Toplantı 14:00"}

	result := guard.Check(sources, "Toplantın 15:30'da.")

	assert.False(t, result.Passed)
	assert.Contains(t, result.Violations, "15:30")
}

func TestGuardFlagsInventedNumberAndDate(t *testing.T) {
	guard := &Guard{}
	sources := []string{"3 etkinlik var"}

	result := guard.Check(sources, "5 etkinlik var, ilki 2026-09-03 tarihinde.")

	assert.False(t, result.Passed)
	assert.Contains(t, result.Violations, "5")
	assert.Contains(t, result.Violations, "2026-09-03")
}

func TestGuardViolationOrderTimesDatesNumbers(t *testing.T) {
	guard := &Guard{}

	result := guard.Check([]string{"nothing here"}, "09:15 ve 01.02.2026 ve 42")

	assert.Equal(t, []string{"9:15", "01.02.2026", "42"}, result.Violations)
}

func TestGuardNormalizesTimes(t *testing.T) {
	guard := &Guard{}

	result := guard.Check([]string{"etkinlik 09:30"}, "Saat 9:30'da.")

	assert.True(t, result.Passed)
}

func TestGuardNormalizesDecimalComma(t *testing.T) {
	guard := &Guard{}

	result := guard.Check([]string{"tutar 2.5"}, "2,50 birim")

	assert.True(t, result.Passed)
}

func TestGuardTimeComponentsNotCountedAsNumbers(t *testing.T) {
	guard := &Guard{}

	// 14 and 00 only appear inside a sourced time token.
	result := guard.Check([]string{"randevu 14:00"}, "Saat 14:00.")

	assert.True(t, result.Passed)
	assert.Empty(t, result.CandidateNumbers)
}

func TestGuardDottedDateNeedsFourDigitYear(t *testing.T) {
	guard := &Guard{}

	result := guard.Check([]string{"oran 3.14"}, "pi yaklaşık 3.14")

	assert.True(t, result.Passed)
	assert.Empty(t, result.CandidateDates)
}

func TestGuardCurrency(t *testing.T) {
	guard := &Guard{CheckCurrency: true}

	passed := guard.Check([]string{"bakiye 150 TL"}, "Hesabında 150 TL var.")
	assert.True(t, passed.Passed)

	failed := guard.Check([]string{"bakiye 150 TL"}, "Hesabında 200 TL var.")
	assert.False(t, failed.Passed)
	assert.Contains(t, failed.Violations, "200")
}

func TestGuardNoFactsAnywhere(t *testing.T) {
	guard := &Guard{}

	result := guard.Check([]string{"merhaba"}, "Merhaba, nasılsın?")

	assert.True(t, result.Passed)
	assert.Empty(t, result.AllowedNumbers)
	assert.Empty(t, result.CandidateNumbers)
}
