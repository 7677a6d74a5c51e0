package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParticipantsWorkbook(t *testing.T) {
	data, err := ParticipantsWorkbook([]ParticipantRow{
		{ContestName: "Logo Sprint", UserName: "Ann", UserEmail: "ann@test.dev", Amount: "150", RegisteredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), TaskLink: "https://drive.test/ann"},
		{ContestName: "Logo Sprint", UserName: "Bob", UserEmail: "bob@test.dev", Amount: "150", TransactionID: "pi_1"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Participants"}, f.GetSheetList())
	rows, err := f.GetRows("Participants")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Contest", rows[0][0])
	assert.Equal(t, []string{"Logo Sprint", "Ann", "ann@test.dev", "150", "", "2026-03-01T12:00:00Z", "https://drive.test/ann"}, rows[1])
	assert.Equal(t, "pi_1", rows[2][4])
}
