package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2026-03-07")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), date)
}

func TestParseDateRejectsOtherLayouts(t *testing.T) {
	for _, value := range []string{"07-03-2026", "2026/03/07", "not a date", ""} {
		_, err := ParseDate(value)
		require.Error(t, err, value)
	}
}

func TestParseOptionalDate(t *testing.T) {
	date, err := ParseOptionalDate("")
	require.NoError(t, err)
	require.Nil(t, date)

	date, err = ParseOptionalDate("2026-03-07")
	require.NoError(t, err)
	require.NotNil(t, date)
	require.Equal(t, "2026-03-07", FormatDate(*date))
}

func TestResolveTermPayloadConfigOnlyWhenOverridden(t *testing.T) {
	payload := ResolveTermPayload{
		StudentID: "student-1",
		ClassID:   "class-1",
		StartDate: "2026-03-07",
		StartTime: "16:00",
	}
	req, err := payload.ToRequest()
	require.NoError(t, err)
	require.Nil(t, req.Config)

	limit := 10
	payload.SessionsLimit = &limit
	req, err = payload.ToRequest()
	require.NoError(t, err)
	require.NotNil(t, req.Config)
	require.Equal(t, 10, *req.Config.SessionsLimit)
	require.Nil(t, req.Config.TuitionFee)
}
