package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTradingDays(t *testing.T) {
	// 2024-06-10 is a Monday
	days := TradingDays(NewDate(2024, 6, 10), 3)
	require.Equal(t, []time.Time{
		NewDate(2024, 6, 6),
		NewDate(2024, 6, 7),
		NewDate(2024, 6, 10),
	}, days)
}
