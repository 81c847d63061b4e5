package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousPeriod(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2026, time.March, 31, 4, 0, 0, 0, time.UTC), "2026-02"},
		{time.Date(2026, time.March, 1, 3, 0, 0, 0, time.UTC), "2026-02"},
		{time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), "2025-12"},
		{time.Date(2024, time.May, 30, 12, 0, 0, 0, time.UTC), "2024-04"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, previousPeriod(tc.now), "run date %s", tc.now)
	}
}
