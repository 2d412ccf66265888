package postgres

import (
	"context"

	"canteenledger/internal/domain/audit"
)

// AuditRecorder adapts AuditService to the domain audit.Recorder interface.
type AuditRecorder struct {
	service *AuditService
}

// NewAuditRecorder creates a recorder backed by the sys_audit table.
func NewAuditRecorder(service *AuditService) *AuditRecorder {
	return &AuditRecorder{service: service}
}

// Record persists one audited change.
func (r *AuditRecorder) Record(ctx context.Context, change audit.Change) error {
	return r.service.LogChange(
		ctx,
		change.EntityType,
		change.EntityID,
		change.TheaterID,
		AuditAction(change.Action),
		change.Fields,
	)
}

var _ audit.Recorder = (*AuditRecorder)(nil)
