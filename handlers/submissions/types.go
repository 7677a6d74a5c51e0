package submissions

const (
	ErrInvalidRequest = "Invalid request data"
	ErrMissingQuery   = "contestId and email are required"
)

// SubmitTaskRequest is the body of POST /submit-task
type SubmitTaskRequest struct {
	ContestID string `json:"contestId" binding:"required"`
	UserEmail string `json:"userEmail" binding:"required,email"`
	TaskLink  string `json:"taskLink" binding:"required"`
}

// SubmittedResponse answers GET /submissions/check
type SubmittedResponse struct {
	Submitted bool `json:"submitted"`
}
