package consultation

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"alternamed-portal/internal/platform/webhook"
	"alternamed-portal/internal/tokens"
	"alternamed-portal/internal/treatment"
)

// ConsultationTokenCost is the fixed price of one consultation. A static
// policy constant, not derived from anything.
const ConsultationTokenCost = 10

// RemoteClient is the external AI workflow that produces treatment plans.
type RemoteClient interface {
	Consult(ctx context.Context, req webhook.Request) ([]byte, error)
}

// Ledger is the token balance store the gateway debits.
type Ledger interface {
	BalanceFor(ctx context.Context, uid string) (tokens.Balance, error)
	Debit(ctx context.Context, uid string, cost int, readAt time.Time) (tokens.Balance, error)
}

type Service interface {
	Submit(ctx context.Context, requester Requester, caseText string) (*treatment.Result, tokens.Balance, error)
	History(ctx context.Context, uid string, limit int) ([]Consultation, error)
}

type service struct {
	repo   Repository
	ledger Ledger
	remote RemoteClient
	logger *slog.Logger

	// one mutex per requester; concurrent submissions by the same
	// requester must not race past the balance check
	submitLocks sync.Map
}

func NewService(repo Repository, ledger Ledger, remote RemoteClient, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		ledger: ledger,
		remote: remote,
		logger: logger,
	}
}

// Submit gates a consultation on the requester's token balance, forwards the
// case to the remote workflow, normalizes whatever comes back, and debits
// the fixed cost. On any failure before the debit no tokens are consumed; if
// the debit itself fails the computed plan is returned inside
// LedgerUpdateFailedError rather than thrown away.
func (s *service) Submit(ctx context.Context, requester Requester, caseText string) (*treatment.Result, tokens.Balance, error) {
	caseText = strings.TrimSpace(caseText)
	if caseText == "" {
		return nil, tokens.Balance{}, ErrEmptyCase
	}

	unlock := s.lockRequester(requester.UID)
	defer unlock()

	balance, err := s.ledger.BalanceFor(ctx, requester.UID)
	if err != nil {
		return nil, tokens.Balance{}, err
	}

	remaining := balance.Remaining()
	if remaining < ConsultationTokenCost {
		return nil, balance, &InsufficientBalanceError{Remaining: remaining}
	}

	sessionID := NewSessionID()
	body, err := s.remote.Consult(ctx, webhook.Request{
		Caso:      caseText,
		SessionID: sessionID,
		UserID:    requester.UID,
		UserEmail: requester.Email,
	})
	if err != nil {
		return nil, balance, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, balance, &MalformedResponseError{Reason: "empty response body"}
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, balance, &MalformedResponseError{Reason: "response body is not JSON"}
	}

	result, err := treatment.Normalize(raw)
	if err != nil {
		return nil, balance, err
	}

	updated, err := s.ledger.Debit(ctx, requester.UID, ConsultationTokenCost, balance.LastUpdated)
	if err != nil {
		s.logger.Error("token debit failed after successful consultation",
			"uid", requester.UID, "session_id", sessionID, "error", err)
		return result, balance, &LedgerUpdateFailedError{Result: result, Err: err}
	}

	s.saveRecord(ctx, requester, caseText, sessionID, result)

	return result, updated, nil
}

func (s *service) History(ctx context.Context, uid string, limit int) ([]Consultation, error) {
	return s.repo.ListByUser(ctx, uid, limit)
}

// saveRecord keeps the consultation history. Best effort: a storage failure
// is logged, never surfaced, since the practitioner already has the plan.
func (s *service) saveRecord(ctx context.Context, requester Requester, caseText, sessionID string, result *treatment.Result) {
	record := &Consultation{
		ID:          uuid.NewString(),
		UserID:      requester.UID,
		UserEmail:   requester.Email,
		Caso:        caseText,
		SessionID:   sessionID,
		Resultado:   result,
		ConsultedAt: time.Now(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Warn("saving consultation record failed",
			"uid", requester.UID, "session_id", sessionID, "error", err)
	}
}

func (s *service) lockRequester(uid string) func() {
	mu, _ := s.submitLocks.LoadOrStore(uid, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

// NewSessionID generates the per-submission correlation identifier: a v4
// UUID with the dashes stripped, matching what the workflow's audit trail
// expects.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
