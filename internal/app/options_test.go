package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_ValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
}

func TestOptions_ValidateRejectsUnknownMode(t *testing.T) {
	o := DefaultOptions()
	o.Mode = "bogus"
	err := o.Validate()
	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
}

func TestOptions_ValidateRejectsNegativeWaitAlert(t *testing.T) {
	o := DefaultOptions()
	o.WaitAlertMs = -1
	err := o.Validate()
	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
}

func TestOptions_ValidateRejectsCSVHeaderWithoutCSV(t *testing.T) {
	o := DefaultOptions()
	o.CSVHeader = true
	o.CSV = false
	err := o.Validate()
	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
}

func TestOptions_ValidateAcceptsCSVHeaderWithCSV(t *testing.T) {
	o := DefaultOptions()
	o.CSV = true
	o.CSVHeader = true
	assert.NoError(t, o.Validate())
}

func TestOptions_RuntimeConfigConvertsMillisecondsToNanoseconds(t *testing.T) {
	o := DefaultOptions()
	o.WaitAlertMs = 5
	o.FilterPID = 42
	cfg := o.RuntimeConfig()
	assert.Equal(t, uint64(5*time.Millisecond), cfg.WaitAlertNs)
	assert.Equal(t, uint32(42), cfg.FilterPID)
}

func TestCLIError_UnwrapsToUnderlyingError(t *testing.T) {
	inner := assert.AnError
	e := &CLIError{Err: inner}
	assert.Equal(t, inner, e.Unwrap())
	assert.Equal(t, inner.Error(), e.Error())
}
