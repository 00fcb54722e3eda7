package checkout

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 59, 58, 0, time.FixedZone("GST", 4*3600))

	number, err := NewOrderNumber(now, bytes.NewReader([]byte{0, 25, 26, 35}))
	require.NoError(t, err)
	require.Equal(t, "ORD-20251231195958-AZ09", number)
	require.True(t, IsOrderNumber(number))
}

func TestNewOrderNumberDefaultsToCryptoRand(t *testing.T) {
	number, err := NewOrderNumber(time.Now(), nil)
	require.NoError(t, err)
	require.True(t, IsOrderNumber(number))
}

func TestNewOrderNumberPropagatesReaderError(t *testing.T) {
	_, err := NewOrderNumber(time.Now(), failingReader{})
	require.Error(t, err)
}

func TestIsOrderNumber(t *testing.T) {
	require.False(t, IsOrderNumber("ORD-2025-ABCD"))
	require.False(t, IsOrderNumber("ORD-20250301120000-abcd"))
	require.False(t, IsOrderNumber("ord-20250301120000-ABCD"))
	require.True(t, IsOrderNumber("ORD-20250301120000-X7Q2"))
}
