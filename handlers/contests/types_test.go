package contests

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		raw   string
		valid bool
		want  string
	}{
		{raw: `150`, valid: true, want: "150"},
		{raw: `"99.5"`, valid: true, want: "99.5"},
		{raw: `"lots"`, valid: false},
		{raw: `true`, valid: false},
		{raw: `null`, valid: false},
		{raw: ``, valid: false},
	}
	for _, tc := range cases {
		got := amount(json.RawMessage(tc.raw))
		assert.Equal(t, tc.valid, got.Valid, tc.raw)
		if tc.valid {
			assert.Equal(t, tc.want, got.Decimal.String(), tc.raw)
		}
	}
}

func TestParseDeadline(t *testing.T) {
	got, ok := parseDeadline("2030-06-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = parseDeadline(" 2030-06-01T18:30 ")
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 6, 1, 18, 30, 0, 0, time.UTC), got)

	got, ok = parseDeadline("2030-06-01T18:30:00+06:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 6, 1, 12, 30, 0, 0, time.UTC), got)

	_, ok = parseDeadline("next friday")
	assert.False(t, ok)
}

func TestUpdatePatchKeepsAbsentFields(t *testing.T) {
	var req UpdateContestRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Renamed","entryFee":"abc"}`), &req))

	p, ok := req.patch()
	require.True(t, ok)
	require.NotNil(t, p.Name)
	assert.Equal(t, "Renamed", *p.Name)
	assert.Nil(t, p.PrizeMoney)
	assert.Nil(t, p.Deadline)
	require.NotNil(t, p.EntryFee)
	assert.False(t, p.EntryFee.Valid, "a non-numeric fee is passed on as invalid, not dropped")

	bad := "soon"
	_, ok = UpdateContestRequest{Deadline: &bad}.patch()
	assert.False(t, ok)
}
