package session

import (
	"context"
	"time"

	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
)

var _ domain.SessionAdapter = (*SessionPort)(nil)

// init session port
func NewSessionPort(sessionService sessiondomain.SessionUsecase) *SessionPort {
	return &SessionPort{sessionService: sessionService}
}

type SessionPort struct {
	sessionService sessiondomain.SessionUsecase
}

func (s *SessionPort) Refresh(ctx context.Context, id string, now time.Time) (*sessiondomain.Session, error) {
	return s.sessionService.Refresh(ctx, id, now)
}

func (s *SessionPort) Transition(ctx context.Context, id string, t sessiondomain.Transition) (bool, error) {
	return s.sessionService.Transition(ctx, id, t)
}

func (s *SessionPort) Audit(ctx context.Context, sessionID string, event sessiondomain.AuditEvent, detail string) {
	s.sessionService.Audit(ctx, sessionID, event, detail)
}

func (s *SessionPort) AuditLog(ctx context.Context, sessionID string) ([]sessiondomain.AuditEntry, error) {
	return s.sessionService.AuditLog(ctx, sessionID)
}
