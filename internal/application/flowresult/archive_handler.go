package flowresult

import (
	"context"

	"go.uber.org/zap"

	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/shared"
)

// ArchiveChangedHandler drops an org's cached result charts when one of its
// run archives is registered or rewritten
type ArchiveChangedHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewArchiveChangedHandler creates a new handler for archive events
func NewArchiveChangedHandler(service *Service, logger *zap.Logger) *ArchiveChangedHandler {
	return &ArchiveChangedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ArchiveChangedHandler) EventTypes() []string {
	return []string{archive.EventTypeArchiveRegistered, archive.EventTypeArchiveRewritten}
}

// Handle invalidates the org's charts for run archive events
func (h *ArchiveChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var archiveType archive.ArchiveType
	switch e := event.(type) {
	case *archive.ArchiveRegisteredEvent:
		archiveType = e.ArchiveType
	case *archive.ArchiveRewrittenEvent:
		archiveType = e.ArchiveType
	default:
		return nil
	}
	if archiveType != archive.TypeRun {
		return nil
	}

	n, err := h.service.Invalidate(ctx, event.OrgID())
	if err != nil {
		h.logger.Warn("Failed to invalidate result charts",
			zap.String("org_id", event.OrgID().String()),
			zap.Error(err))
		return err
	}
	h.logger.Debug("Result charts invalidated",
		zap.String("org_id", event.OrgID().String()),
		zap.String("event_type", event.EventType()),
		zap.Int("removed", n))
	return nil
}
