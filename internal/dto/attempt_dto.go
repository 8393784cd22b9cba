package dto

import (
	"time"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// Certificate states reported alongside a result.
const (
	CertificateStatusIssued      = "issued"
	CertificateStatusPending     = "pending"
	CertificateStatusNotEligible = "not_eligible"
)

// SubmitAssessmentRequest carries a candidate's answers in question order.
type SubmitAssessmentRequest struct {
	Answers []string `json:"answers" validate:"required,min=1"`
}

// AttemptResponse describes one scored attempt.
type AttemptResponse struct {
	ID            uint      `json:"id"`
	AssessmentID  uint      `json:"assessmentId"`
	AttemptNumber int       `json:"attemptNumber"`
	Score         int       `json:"score"`
	Passed        bool      `json:"passed"`
	Badge         string    `json:"badge"`
	Answers       []string  `json:"answers"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SubmitAssessmentResponse is returned after a submission is scored.
type SubmitAssessmentResponse struct {
	AttemptResponse
	CertificateID *uint `json:"certificateId"`
}

// AssessmentResultResponse is the latest attempt plus the caller's attempt budget.
// A nil MaxAllowedAttempts means the caller has no ceiling.
type AssessmentResultResponse struct {
	AttemptResponse
	CertificateID      *uint  `json:"certificateId"`
	CertificateStatus  string `json:"certificateStatus"`
	TotalAttempts      int64  `json:"totalAttempts"`
	MaxAllowedAttempts *int   `json:"maxAllowedAttempts"`
	RemainingAttempts  *int   `json:"remainingAttempts"`
}

// AttemptHistoryItem is one row of the caller's result history.
type AttemptHistoryItem struct {
	AttemptResponse
	AssessmentName string `json:"assessmentName"`
	CertificateID  *uint  `json:"certificateId"`
}

// NewAttemptResponse maps a persisted attempt.
func NewAttemptResponse(attempt models.Attempt) AttemptResponse {
	answers := attempt.AnswerList()
	if answers == nil {
		answers = []string{}
	}

	return AttemptResponse{
		ID:            attempt.ID,
		AssessmentID:  attempt.AssessmentID,
		AttemptNumber: attempt.Sequence,
		Score:         attempt.Score,
		Passed:        attempt.Passed,
		Badge:         attempt.Badge,
		Answers:       answers,
		CreatedAt:     attempt.CreatedAt,
	}
}

// NewAttemptHistory maps attempts loaded with their assessment and certificate.
func NewAttemptHistory(attempts []models.Attempt) []AttemptHistoryItem {
	items := make([]AttemptHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		item := AttemptHistoryItem{
			AttemptResponse: NewAttemptResponse(attempt),
			AssessmentName:  attempt.Assessment.Name,
		}
		if attempt.Certificate != nil {
			id := attempt.Certificate.ID
			item.CertificateID = &id
		}
		items = append(items, item)
	}
	return items
}
