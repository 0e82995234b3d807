package consultation

import (
	"errors"
	"fmt"

	"alternamed-portal/internal/treatment"
)

// ErrEmptyCase rejects submissions whose case description is blank after
// trimming.
var ErrEmptyCase = errors.New("case description is empty")

// InsufficientBalanceError means the requester cannot afford a consultation.
// The remote workflow is never called in this state.
type InsufficientBalanceError struct {
	Remaining int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient tokens: %d remaining, a consultation costs %d", e.Remaining, ConsultationTokenCost)
}

// MalformedResponseError means the webhook answered with an empty or
// non-JSON body. Distinct from treatment.ErrUnparsableResponse, which is a
// decoded body with no locatable treatment payload. Neither debits tokens.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed webhook response: " + e.Reason
}

// LedgerUpdateFailedError means a usable treatment plan was produced but the
// token debit did not land. The plan is attached so the caller is not forced
// to discard a valid outcome; the missed debit is a reconciliation concern.
type LedgerUpdateFailedError struct {
	Result *treatment.Result
	Err    error
}

func (e *LedgerUpdateFailedError) Error() string {
	return fmt.Sprintf("consultation succeeded but token debit failed: %v", e.Err)
}

func (e *LedgerUpdateFailedError) Unwrap() error {
	return e.Err
}
