package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testT *testing.T

// SetT sets the test instance used by the helpers below.
func SetT(t *testing.T) {
	testT = t
}

// NoErr asserts that err is nil and returns the value.
func NoErr[T any](v T, err error) T {
	require.NoError(testT, err)
	return v
}

// Err asserts that err is non-nil and returns it.
func Err[T any](_ T, err error) error {
	require.Error(testT, err)
	return err
}
