package utils

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const participantsSheet = "Participants"

var participantsHeader = []any{"Contest", "Name", "Email", "Amount", "Transaction", "Registered", "Task link"}

// ParticipantRow is one line of the creator export
type ParticipantRow struct {
	ContestName   string
	UserName      string
	UserEmail     string
	Amount        string
	TransactionID string
	RegisteredAt  time.Time
	TaskLink      string
}

// ParticipantsWorkbook renders the rows as an .xlsx file
func ParticipantsWorkbook(rows []ParticipantRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", participantsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(participantsSheet, "A1", &participantsHeader); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.ContestName,
			r.UserName,
			r.UserEmail,
			r.Amount,
			r.TransactionID,
			r.RegisteredAt.UTC().Format(time.RFC3339),
			r.TaskLink,
		}
		if err := f.SetSheetRow(participantsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
