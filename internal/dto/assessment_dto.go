package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// AssessmentQuestionRequest is one question as submitted by a developer.
type AssessmentQuestionRequest struct {
	Question string   `json:"question" validate:"required,max=2000"`
	Options  []string `json:"options" validate:"required,min=2,max=6,dive,required,max=500"`
	Answer   *int     `json:"answer" validate:"required,min=0"`
}

// AssessmentRequest creates or replaces an assessment.
type AssessmentRequest struct {
	Name         string                      `json:"name" validate:"required,min=3,max=255"`
	Description  string                      `json:"description" validate:"max=5000"`
	PassingScore *int                        `json:"passingScore" validate:"omitempty,min=0,max=100"`
	TimeLimit    *int                        `json:"timeLimit" validate:"omitempty,min=1"`
	IsActive     *bool                       `json:"isActive"`
	Questions    []AssessmentQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// AssessmentSummaryResponse lists an assessment without its questions.
type AssessmentSummaryResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PassingScore  int    `json:"passingScore"`
	TimeLimit     int    `json:"timeLimit"`
	QuestionCount int    `json:"questionCount"`
}

// AssessmentQuestionView is a question shown to candidates, without its answer key.
type AssessmentQuestionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// AssessmentDetailResponse is what a candidate sees before submitting.
type AssessmentDetailResponse struct {
	ID           uint                     `json:"id"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	PassingScore int                      `json:"passingScore"`
	TimeLimit    int                      `json:"timeLimit"`
	Questions    []AssessmentQuestionView `json:"questions"`
}

// DeveloperAssessmentResponse includes the stored question payload with answers.
type DeveloperAssessmentResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PassingScore int             `json:"passingScore"`
	TimeLimit    int             `json:"timeLimit"`
	IsActive     bool            `json:"isActive"`
	Questions    json.RawMessage `json:"questions"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewAssessmentSummaryResponse maps an assessment to its list entry.
func NewAssessmentSummaryResponse(assessment models.Assessment) AssessmentSummaryResponse {
	return AssessmentSummaryResponse{
		ID:            assessment.ID,
		Name:          assessment.Name,
		Description:   assessment.Description,
		PassingScore:  assessment.PassingThreshold(),
		TimeLimit:     assessment.TimeLimit,
		QuestionCount: assessment.Bank().Len(),
	}
}

// NewAssessmentSummaryResponseSlice maps a slice of assessments.
func NewAssessmentSummaryResponseSlice(assessments []models.Assessment) []AssessmentSummaryResponse {
	result := make([]AssessmentSummaryResponse, 0, len(assessments))
	for _, assessment := range assessments {
		result = append(result, NewAssessmentSummaryResponse(assessment))
	}
	return result
}

// NewAssessmentDetailResponse strips the answer key from the question bank.
func NewAssessmentDetailResponse(assessment models.Assessment) AssessmentDetailResponse {
	bank := assessment.Bank()
	questions := make([]AssessmentQuestionView, 0, bank.Len())
	for i, slot := range bank {
		options := slot.Options
		if options == nil {
			options = []string{}
		}
		questions = append(questions, AssessmentQuestionView{
			Index:    i,
			Question: slot.Text,
			Options:  options,
		})
	}

	return AssessmentDetailResponse{
		ID:           assessment.ID,
		Name:         assessment.Name,
		Description:  assessment.Description,
		PassingScore: assessment.PassingThreshold(),
		TimeLimit:    assessment.TimeLimit,
		Questions:    questions,
	}
}

// NewDeveloperAssessmentResponse maps an assessment for its owner.
func NewDeveloperAssessmentResponse(assessment models.Assessment) DeveloperAssessmentResponse {
	questions := json.RawMessage(assessment.Questions)
	if len(questions) == 0 {
		questions = json.RawMessage("[]")
	}

	return DeveloperAssessmentResponse{
		ID:           assessment.ID,
		Name:         assessment.Name,
		Description:  assessment.Description,
		PassingScore: assessment.PassingThreshold(),
		TimeLimit:    assessment.TimeLimit,
		IsActive:     assessment.IsActive,
		Questions:    questions,
		CreatedAt:    assessment.CreatedAt,
		UpdatedAt:    assessment.UpdatedAt,
	}
}

// NewDeveloperAssessmentResponseSlice maps a slice of owned assessments.
func NewDeveloperAssessmentResponseSlice(assessments []models.Assessment) []DeveloperAssessmentResponse {
	result := make([]DeveloperAssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		result = append(result, NewDeveloperAssessmentResponse(assessment))
	}
	return result
}
