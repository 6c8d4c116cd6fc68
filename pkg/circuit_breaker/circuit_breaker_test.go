package circuit_breaker_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/lending-service/pkg/circuit_breaker"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()

	ok := func() error { return nil }
	fail := func() error { return errors.New("service error") }

	cb := circuit_breaker.New(10, 50*time.Millisecond, 0.5, 3)

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(ok))
	}

	// Half the window fails: the breaker trips open.
	for i := 0; i < 5; i++ {
		require.Error(t, cb.Call(fail))
	}
	require.ErrorIs(t, cb.Call(ok), circuit_breaker.ErrOpenCB)

	// After the timeout it half-opens and probes pass through again.
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, cb.Call(ok))

	// A failing probe reopens it immediately.
	time.Sleep(60 * time.Millisecond)
	require.Error(t, cb.Call(fail))
	require.ErrorIs(t, cb.Call(ok), circuit_breaker.ErrOpenCB)

	// Enough successful probes close it for good.
	time.Sleep(60 * time.Millisecond)
	for i := 0; i < 4; i++ {
		require.NoError(t, cb.Call(ok))
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(ok))
	}
}

func Test_circuitBreaker_Reset(t *testing.T) {
	t.Parallel()

	fail := func() error { return errors.New("service error") }

	cb := circuit_breaker.New(4, time.Minute, 0.5, 1)
	for i := 0; i < 2; i++ {
		require.Error(t, cb.Call(fail))
	}
	require.ErrorIs(t, cb.Call(func() error { return nil }), circuit_breaker.ErrOpenCB)

	cb.Reset()
	require.NoError(t, cb.Call(func() error { return nil }))
}
