package consultation

import (
	"time"

	"alternamed-portal/internal/treatment"
)

// Requester identifies the practitioner submitting a case. Identity is
// always passed explicitly; the gateway never reads it from ambient state.
type Requester struct {
	UID   string
	Email string
}

// Consultation is one stored submission and its normalized plan.
type Consultation struct {
	ID          string            `json:"id" db:"id"`
	UserID      string            `json:"user_id" db:"user_id"`
	UserEmail   string            `json:"user_email" db:"user_email"`
	Caso        string            `json:"caso" db:"caso"`
	SessionID   string            `json:"session_id" db:"session_id"`
	Resultado   *treatment.Result `json:"resultado" db:"resultado"`
	ConsultedAt time.Time         `json:"consulted_at" db:"consulted_at"`
}
