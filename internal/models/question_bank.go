package models

import (
	"encoding/json"
	"math"
)

// Question is the strict shape accepted from developers when an assessment is
// created or updated.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// QuestionSlot is one positional entry of a persisted question bank. Usable is
// false when the stored entry cannot be graded (missing options, answer index
// out of range, wrong JSON types).
type QuestionSlot struct {
	Text    string
	Options []string
	Answer  int
	Usable  bool
}

// CorrectOption returns the option text that earns credit for this slot.
func (s QuestionSlot) CorrectOption() (string, bool) {
	if !s.Usable {
		return "", false
	}
	return s.Options[s.Answer], true
}

// QuestionBank is the decoded, read-only question list of an assessment.
type QuestionBank []QuestionSlot

// Len returns the number of positional slots, including unusable ones.
func (b QuestionBank) Len() int {
	return len(b)
}

// EncodeQuestions serialises validated questions for storage.
func EncodeQuestions(questions []Question) ([]byte, error) {
	if questions == nil {
		questions = []Question{}
	}
	return json.Marshal(questions)
}

// ParseQuestionBank decodes a stored question payload without trusting it.
// A payload that is not a JSON array yields an empty bank; each array element
// yields one slot whether or not it is well formed.
func ParseQuestionBank(raw []byte) QuestionBank {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return QuestionBank{}
	}

	bank := make(QuestionBank, 0, len(items))
	for _, item := range items {
		bank = append(bank, parseSlot(item))
	}
	return bank
}

func parseSlot(raw json.RawMessage) QuestionSlot {
	var fields struct {
		Question json.RawMessage `json:"question"`
		Options  json.RawMessage `json:"options"`
		Answer   json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return QuestionSlot{}
	}

	slot := QuestionSlot{}
	_ = json.Unmarshal(fields.Question, &slot.Text)

	var options []string
	if err := json.Unmarshal(fields.Options, &options); err != nil || len(options) == 0 {
		return slot
	}
	slot.Options = options

	var answer *float64
	if err := json.Unmarshal(fields.Answer, &answer); err != nil || answer == nil {
		return slot
	}
	index := *answer
	if index != math.Trunc(index) || index < 0 || index >= float64(len(options)) {
		return slot
	}

	slot.Answer = int(index)
	slot.Usable = true
	return slot
}
