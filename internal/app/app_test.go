package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schedlab/schedlab/internal/probe"
)

func TestExitCode_NilIsZero(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
}

func TestExitCode_CLIErrorIsOne(t *testing.T) {
	err := &CLIError{Err: errors.New("bad flag")}
	assert.Equal(t, 1, ExitCode(err))
}

func TestExitCode_ProbeSentinelsMapToTable(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: boom", probe.ErrLoadFailed), 2},
		{fmt.Errorf("%w: boom", probe.ErrConfigWriteFailed), 3},
		{fmt.Errorf("%w: boom", probe.ErrAttachFailed), 4},
		{probe.ErrUnsupportedPlatform, 4},
		{fmt.Errorf("%w: boom", probe.ErrRingSetupFailed), 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ExitCode(c.err), c.err.Error())
	}
}

func TestExitCode_UnclassifiedErrorDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, ExitCode(errors.New("something unexpected")))
}
