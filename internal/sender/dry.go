package sender

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sales440/ivy-ai-platform/internal/pkg/logger"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

// DrySender logs messages instead of delivering them. Used when SES
// credentials are not configured, so local development still exercises the
// full enrollment path.
type DrySender struct {
	seq atomic.Int64
}

func NewDrySender() *DrySender { return &DrySender{} }

func (s *DrySender) Send(_ context.Context, recipient, subject, _ string) (*sequence.SendResult, error) {
	n := s.seq.Add(1)
	logger.Info("dry-run send", "recipient", recipient, "subject", subject)
	return &sequence.SendResult{Success: true, MessageID: fmt.Sprintf("dry-%d", n)}, nil
}
