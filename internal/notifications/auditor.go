package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/metrics"
)

// Entry is a single delivery attempt to be recorded.
type Entry struct {
	Kind         models.NotificationKind
	TicketID     string
	RecipientIDs []string
	SenderID     string
	Metadata     map[string]any
	SentAt       time.Time
}

// AuditRecorder persists delivery attempts. Implementations must not fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry Entry)
}

// Auditor appends rows to the notification log table.
type Auditor struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuditor constructs an Auditor backed by db.
func NewAuditor(db *gorm.DB) (*Auditor, error) {
	if db == nil {
		return nil, errors.New("auditor: db is required")
	}
	return &Auditor{db: db, log: logger.WithModule("notifications")}, nil
}

// Record writes entry. Failures are logged and counted, never returned.
func (a *Auditor) Record(ctx context.Context, entry Entry) {
	row := models.NotificationLog{
		Type:         entry.Kind,
		TicketID:     entry.TicketID,
		RecipientIDs: append([]string(nil), entry.RecipientIDs...),
		Metadata:     entry.Metadata,
		SentAt:       entry.SentAt,
	}
	if row.SentAt.IsZero() {
		row.SentAt = time.Now().UTC()
	}
	if sender := strings.TrimSpace(entry.SenderID); sender != "" {
		row.SenderID = &sender
	}

	if err := a.db.WithContext(ensureContext(ctx)).Create(&row).Error; err != nil {
		metrics.AuditWriteFailures.Inc()
		a.log.Warn("notification log write failed",
			zap.String("kind", string(entry.Kind)),
			zap.String("ticket_id", entry.TicketID),
			zap.Error(err),
		)
	}
}
