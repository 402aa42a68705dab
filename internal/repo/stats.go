// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// OwnerStats returns aggregate metadata for a user's messages: the total number
// of rows and the newest SubmittedAt among them. Messages are never updated, so
// the pair changes exactly when a message is added.
//
// When the user has no messages, the returned count is 0 and latest is nil.
func OwnerStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("owner_id = ?", ownerID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get newest submitted_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		SubmittedAt time.Time
	}
	if err = q.Select("submitted_at").Order("submitted_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.SubmittedAt, nil
}
