package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertDecimalEqual(t *testing.T, actual decimal.Decimal, expectedStr string, msgAndArgs ...any) {
	t.Helper()

	expected, err := decimal.NewFromString(expectedStr)
	require.NoError(t, err, msgAndArgs...)

	if len(msgAndArgs) == 0 {
		msgAndArgs = []any{"expected %s, got %s", expectedStr, actual.String()}
	}
	assert.True(t, actual.Equal(expected), msgAndArgs...)
}
