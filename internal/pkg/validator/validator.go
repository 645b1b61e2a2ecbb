package validator

import (
	"fmt"
	"strings"

	"github.com/sightlabs/qa-backend/internal/entity"
)

// Validator validates inbound API payloads.
type Validator struct {
	maxQuestionChars int
}

func NewValidator(maxQuestionChars int) *Validator {
	return &Validator{maxQuestionChars: maxQuestionChars}
}

// ValidateTurnRequest validates the payload of /query and /stream.
func (v *Validator) ValidateTurnRequest(req *entity.TurnRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}

	if v.maxQuestionChars > 0 && len(req.Question) > v.maxQuestionChars {
		return fmt.Errorf("%w: question exceeds %d characters", entity.ErrInvalidParameter, v.maxQuestionChars)
	}

	return nil
}
