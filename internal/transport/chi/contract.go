package chi

import (
	"context"
	"fmt"

	schemeuc "github.com/kailas-cloud/schemedex/internal/usecase/scheme"
)

// AnswerComposer composes a grounded answer from retrieved schemes.
type AnswerComposer interface {
	Answer(ctx context.Context, question string, matches []schemeuc.Match) (string, error)
}

// validationError marks a request-shape problem discovered below the
// decode step; it maps to 400 validation_failed.
type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func errValidation(msg string) error { return validationError{msg: msg} }

func fmtCountBounds(field string, max int) string {
	return fmt.Sprintf("%s count must be between 1 and %d", field, max)
}
