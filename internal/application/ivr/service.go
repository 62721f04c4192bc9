package ivr

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temba/backend/internal/domain/ivr"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/telemetry"
)

// MaxSteps is the longest script that can be rendered
const MaxSteps = 100

// RenderRequest is a declarative IVR script
type RenderRequest struct {
	Steps []ivr.Step `json:"steps" binding:"required,min=1,max=100"`
}

// Service renders IVR scripts as Vonage call control objects
type Service struct {
	logger *zap.Logger
}

// NewService creates a new Service
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Render validates the steps and returns the NCCO actions for them
func (s *Service) Render(ctx context.Context, steps []ivr.Step) ([]ivr.Action, error) {
	if len(steps) == 0 {
		return nil, shared.NewDomainError("INVALID_STEP", "At least one step is required")
	}
	if len(steps) > MaxSteps {
		return nil, shared.NewDomainError("INVALID_STEP", fmt.Sprintf("Scripts can have at most %d steps", MaxSteps))
	}

	_, span := telemetry.StartServiceSpan(ctx, "ivr", "render")
	defer span.End()

	r, err := ivr.FromSteps(steps)
	if err != nil {
		s.logger.Debug("Rejected IVR script", zap.Int("steps", len(steps)), zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return r.Document(), nil
}
