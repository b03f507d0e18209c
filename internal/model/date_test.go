package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 20:00 UTC on the 13th is already the 14th in Tokyo.
	at := time.Date(2024, time.March, 13, 20, 0, 0, 0, time.UTC)

	got, err := ParseDate("", at, tokyo)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseDate(" Today ", at, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, tokyo), *got)

	got, err = ParseDate("tomorrow", at, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, tokyo), *got)

	got, err = ParseDate("2024-12-31", at, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), *got)

	_, err = ParseDate("31/12/2024", at, time.UTC)
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}
