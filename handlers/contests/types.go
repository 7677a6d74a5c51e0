package contests

import (
	"encoding/json"
	"strings"
	"time"

	"contesthub/services"

	"github.com/shopspring/decimal"
)

const (
	ErrInvalidRequest  = "Invalid request data"
	ErrInvalidDeadline = "Deadline must be an RFC 3339 timestamp or a YYYY-MM-DD date"
	ErrMissingContest  = "contestId is required"
)

// CreateContestRequest is the body of POST /api/contests
type CreateContestRequest struct {
	Name            string          `json:"name" binding:"required"`
	Image           string          `json:"image" binding:"required,url"`
	Description     string          `json:"description" binding:"required"`
	EntryFee        json.RawMessage `json:"entryFee" swaggertype:"number"`
	PrizeMoney      json.RawMessage `json:"prizeMoney" swaggertype:"number"`
	TaskInstruction string          `json:"taskInstruction" binding:"required"`
	ContestType     string          `json:"contestType" binding:"required"`
	Deadline        string          `json:"deadline" binding:"required"`
	CreatorName     string          `json:"creatorName"`
}

// UpdateContestRequest is the body of PATCH /api/contests/:id; absent fields stay unchanged
type UpdateContestRequest struct {
	Name            *string         `json:"name"`
	Image           *string         `json:"image" binding:"omitempty,url"`
	Description     *string         `json:"description"`
	EntryFee        json.RawMessage `json:"entryFee" swaggertype:"number"`
	PrizeMoney      json.RawMessage `json:"prizeMoney" swaggertype:"number"`
	TaskInstruction *string         `json:"taskInstruction"`
	ContestType     *string         `json:"contestType"`
	Deadline        *string         `json:"deadline"`
}

// DeclareWinnerRequest is the body of POST /api/contests/declare-winner
type DeclareWinnerRequest struct {
	ContestID   string `json:"contestId" binding:"required"`
	WinnerEmail string `json:"winnerEmail" binding:"required,email"`
	WinnerName  string `json:"winnerName"`
	WinnerPhoto string `json:"winnerPhoto"`
}

// amount decodes a JSON number or numeric string; anything else is reported as not a number
func amount(raw json.RawMessage) decimal.NullDecimal {
	var d decimal.NullDecimal
	if len(raw) == 0 {
		return d
	}
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.NullDecimal{}
	}
	return d
}

// parseDeadline accepts the timestamps browsers send from date and datetime pickers
func parseDeadline(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (r CreateContestRequest) input(creatorEmail string, deadline time.Time) services.ContestInput {
	return services.ContestInput{
		Name:            r.Name,
		Image:           r.Image,
		Description:     r.Description,
		EntryFee:        amount(r.EntryFee),
		PrizeMoney:      amount(r.PrizeMoney),
		TaskInstruction: r.TaskInstruction,
		ContestType:     r.ContestType,
		Deadline:        deadline,
		CreatorEmail:    creatorEmail,
		CreatorName:     r.CreatorName,
	}
}

func (r UpdateContestRequest) patch() (services.ContestPatch, bool) {
	p := services.ContestPatch{
		Name:            r.Name,
		Image:           r.Image,
		Description:     r.Description,
		TaskInstruction: r.TaskInstruction,
		ContestType:     r.ContestType,
	}
	if len(r.EntryFee) > 0 {
		fee := amount(r.EntryFee)
		p.EntryFee = &fee
	}
	if len(r.PrizeMoney) > 0 {
		prize := amount(r.PrizeMoney)
		p.PrizeMoney = &prize
	}
	if r.Deadline != nil {
		deadline, ok := parseDeadline(*r.Deadline)
		if !ok {
			return p, false
		}
		p.Deadline = &deadline
	}
	return p, true
}
