// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the Message repository: the only
// component allowed to assign message ids and submission timestamps.
//
// Error semantics:
//   - Validation failures wrap domain.ErrInvalidInput and happen before any I/O.
//   - Every backing-store failure, including context cancellation and
//     deadlines, wraps domain.ErrUnavailable together with the driver error.
//
// Messages are append-only: there is no update or delete path.
package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// timestampResolution is the precision kept for SubmittedAt. Inserts within
// the same tick share a stamp and are ordered by their time-ordered ids.
const timestampResolution = time.Microsecond

// NewMessage carries the caller-supplied fields of a message. The id and the
// submission time are never taken from the caller.
type NewMessage struct {
	OwnerID    string
	OwnerEmail string
	Text       string
	Attachment *domain.Attachment
	DeliveryAt time.Time
}

// Messages is the GORM-backed message repository. It is safe for concurrent use.
type Messages struct {
	DB *gorm.DB

	now func() time.Time

	mu   sync.Mutex
	last time.Time // newest SubmittedAt handed out
}

// NewMessages builds a repository over db. now is the repository clock; nil
// means time.Now. The submission-time watermark is seeded from the newest
// stored record so timestamps stay non-decreasing across restarts.
func NewMessages(ctx context.Context, db *gorm.DB, now func() time.Time) (*Messages, error) {
	if now == nil {
		now = time.Now
	}
	r := &Messages{DB: db, now: now}

	var row struct {
		SubmittedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("submitted_at").
		Order("submitted_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, unavailable("seed submission watermark", err)
	}
	r.last = row.SubmittedAt.UTC()
	return r, nil
}

// Insert validates and persists a new message, returning the stored record.
//
// The record becomes visible to readers only once the single INSERT commits.
// The lock held while stamping is released before the database call.
func (r *Messages) Insert(ctx context.Context, in NewMessage) (*domain.Message, error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, fmt.Errorf("%w: owner id is empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	if in.DeliveryAt.IsZero() {
		return nil, fmt.Errorf("%w: delivery instant is not set", domain.ErrInvalidInput)
	}
	if in.Attachment != nil && strings.TrimSpace(in.Attachment.URL) == "" {
		return nil, fmt.Errorf("%w: attachment url is empty", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, unavailable("insert message", err)
	}

	id, at, err := r.stamp()
	if err != nil {
		return nil, unavailable("assign message id", err)
	}
	m := &domain.Message{
		ID:          id,
		OwnerID:     in.OwnerID,
		OwnerEmail:  in.OwnerEmail,
		Text:        in.Text,
		SubmittedAt: at,
		DeliveryAt:  in.DeliveryAt.UTC(),
	}
	if a := in.Attachment; a != nil {
		m.AttachmentURL = a.URL
		m.AttachmentMIMEType = a.MIMEType
	}

	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, unavailable("insert message", err)
	}
	return m, nil
}

// QueryByOwner returns every message owned by ownerID in insertion order
// (SubmittedAt ASC, ID ASC). It returns an empty slice when there are none.
func (r *Messages) QueryByOwner(ctx context.Context, ownerID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, unavailable("query messages", err)
	}
	return out, nil
}

// CountByOwner returns the number of messages owned by ownerID.
func (r *Messages) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&domain.Message{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	if err != nil {
		return 0, unavailable("count messages", err)
	}
	return total, nil
}

// QueryByOwnerPage returns a slice of the owner's messages in insertion order.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func (r *Messages) QueryByOwnerPage(ctx context.Context, ownerID string, offset, limit int) ([]domain.Message, error) {
	out := []domain.Message{}
	err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("submitted_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, unavailable("query messages page", err)
	}
	return out, nil
}

// Stats returns the owner's message count and newest submission time.
func (r *Messages) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	count, latest, err := OwnerStats(ctx, r.DB, ownerID)
	if err != nil {
		return 0, nil, unavailable("message stats", err)
	}
	return count, latest, nil
}

// stamp hands out the next id and submission time together. The time is the
// repository clock truncated to timestampResolution and held at the previous
// stamp if the clock stepped back; it never runs ahead of the clock otherwise.
// Ids are UUIDv7, issued under the same lock, so (SubmittedAt, ID) follows
// insertion order even when stamps tie.
func (r *Messages) stamp() (string, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.now().UTC().Truncate(timestampResolution)
	if t.Before(r.last) {
		t = r.last
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", time.Time{}, err
	}
	r.last = t
	return id.String(), t, nil
}

// unavailable wraps a backing-store failure with the failed operation.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
