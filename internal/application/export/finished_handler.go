package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temba/backend/internal/domain/export"
	"github.com/temba/backend/internal/domain/shared"
)

// FinishedNotifier tells the user who asked for an export that it finished
type FinishedNotifier interface {
	NotifyExportFinished(ctx context.Context, notification FinishedNotification) error
}

// FinishedNotification describes a finished export
type FinishedNotification struct {
	OrgID      string `json:"org_id"`
	ExportID   string `json:"export_id"`
	ExportType string `json:"export_type"`
	Succeeded  bool   `json:"succeeded"`
	NumRecords int    `json:"num_records"`
	Error      string `json:"error,omitempty"`
}

// FinishedHandler handles ExportCompleted and ExportFailed events
type FinishedHandler struct {
	logger   *zap.Logger
	notifier FinishedNotifier
}

// NewFinishedHandler creates a new handler for finished export events
func NewFinishedHandler(logger *zap.Logger) *FinishedHandler {
	return &FinishedHandler{logger: logger}
}

// WithNotifier sets the notifier for sending notifications
func (h *FinishedHandler) WithNotifier(notifier FinishedNotifier) *FinishedHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *FinishedHandler) EventTypes() []string {
	return []string{export.EventTypeExportCompleted, export.EventTypeExportFailed}
}

// Handle processes a finished export event
func (h *FinishedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*export.ExportEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
			zap.String("event_id", event.EventID().String()))
		return fmt.Errorf("unexpected event type: %T", event)
	}

	n := FinishedNotification{
		OrgID:      e.OrgID().String(),
		ExportID:   e.AggregateID().String(),
		ExportType: string(e.ExportType),
		Succeeded:  e.EventType() == export.EventTypeExportCompleted,
		NumRecords: e.NumRecords,
		Error:      e.Error,
	}

	h.logger.Info("Export finished",
		zap.String("org_id", n.OrgID),
		zap.String("export_id", n.ExportID),
		zap.String("export_type", n.ExportType),
		zap.Bool("succeeded", n.Succeeded),
		zap.Int("num_records", n.NumRecords))

	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.NotifyExportFinished(ctx, n); err != nil {
		h.logger.Warn("Failed to notify export finished",
			zap.String("export_id", n.ExportID),
			zap.Error(err))
		return err
	}
	return nil
}
