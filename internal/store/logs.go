// internal/store/logs.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
)

// DocumentIndexer mirrors audit rows into a search index. Satisfied by
// the elasticsearch client.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, id string, doc []byte) error
}

// NotificationLogs is the append-only dispatch audit log. Rows land in
// postgres; a best-effort copy goes to elasticsearch for searching.
type NotificationLogs struct {
	db      *sql.DB
	indexer DocumentIndexer
	index   string
	logger  logger.Logger
}

// NewNotificationLogs builds the audit store. indexer may be nil when no
// search mirror is configured.
func NewNotificationLogs(db *sql.DB, indexer DocumentIndexer, index string, log logger.Logger) *NotificationLogs {
	return &NotificationLogs{
		db:      db,
		indexer: indexer,
		index:   index,
		logger:  log,
	}
}

// Append writes one audit row. ID and SentAt are filled in when empty.
// The elasticsearch mirror never fails the append; an indexing error is
// logged and dropped.
func (s *NotificationLogs) Append(ctx context.Context, entry *models.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO notification_logs
			(id, sent_by, type, method, template, filters, recipient_count, emails_sent, sms_sent, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.SentBy,
		entry.Type,
		entry.Method,
		nullable(entry.Template),
		nullable(entry.Filters),
		entry.RecipientCount,
		entry.EmailsSent,
		entry.SMSSent,
		entry.Status,
		nullable(entry.Error),
		entry.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification log: %w", err)
	}

	s.mirror(ctx, entry)
	return nil
}

func (s *NotificationLogs) mirror(ctx context.Context, entry *models.NotificationLog) {
	if s.indexer == nil {
		return
	}
	doc, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("failed to encode log for indexing", map[string]interface{}{
			"id":    entry.ID,
			"error": err.Error(),
		})
		return
	}
	if err := s.indexer.IndexDocument(ctx, s.index, entry.ID, doc); err != nil {
		s.logger.Warn("failed to mirror log to elasticsearch", map[string]interface{}{
			"id":    entry.ID,
			"error": err.Error(),
		})
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
