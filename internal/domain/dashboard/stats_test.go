package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillSeries(t *testing.T) {
	now := time.Date(2026, time.February, 17, 10, 0, 0, 0, time.UTC)

	points := FillSeries(now, map[string]int64{"2025-09": 4, "2026-02": 1}, map[string]int64{"2025-12": 2})

	require.Len(t, points, MonthsInSeries)
	assert.Equal(t, "2025-09", points[0].Month)
	assert.Equal(t, int64(4), points[0].Created)
	assert.Equal(t, "2025-12", points[3].Month)
	assert.Equal(t, int64(2), points[3].Completed)
	assert.Equal(t, "2026-02", points[5].Month)
	assert.Equal(t, int64(1), points[5].Created)
}

func TestQuery_SeriesStart(t *testing.T) {
	q := Query{Now: time.Date(2026, time.March, 31, 23, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), q.SeriesStart())
}
