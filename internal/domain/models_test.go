package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if (Message{}).TableName() != "messages" {
		t.Fatalf("Message.TableName() = %q; want %q", (Message{}).TableName(), "messages")
	}
}

func TestMessage_Attachment(t *testing.T) {
	if a := (Message{}).Attachment(); a != nil {
		t.Fatalf("expected nil attachment, got %+v", a)
	}
	m := Message{AttachmentURL: "http://x/u1/a.png", AttachmentMIMEType: "image/png"}
	a := m.Attachment()
	if a == nil || a.URL != "http://x/u1/a.png" || a.MIMEType != "image/png" {
		t.Fatalf("unexpected attachment: %+v", a)
	}
}

func TestMigration_IndexAndNoLockColumn(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Message{}) {
		t.Fatalf("expected messages table")
	}
	if !m.HasIndex(&Message{}, "idx_owner_msgs") {
		t.Fatalf("expected index idx_owner_msgs on messages")
	}
	for _, col := range []string{"owner_id", "owner_email", "text", "attachment_url", "attachment_mime_type", "submitted_at", "delivery_at"} {
		if !m.HasColumn(&Message{}, col) {
			t.Fatalf("expected column %q", col)
		}
	}
	// lock state is derived, never stored
	if m.HasColumn(&Message{}, "is_locked") || m.HasColumn(&Message{}, "lock_state") {
		t.Fatalf("lock state must not be persisted")
	}

	now := time.Now().UTC()
	in := &Message{ID: "m1", OwnerID: "u1", Text: "hi", SubmittedAt: now, DeliveryAt: now.Add(time.Hour)}
	if err := db.Create(in).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Message
	if err := db.First(&got, "id = ?", "m1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Attachment() != nil {
		t.Fatalf("expected no attachment after roundtrip, got %+v", got.Attachment())
	}
	if !got.DeliveryAt.Equal(in.DeliveryAt) {
		t.Fatalf("delivery_at mismatch: %v vs %v", got.DeliveryAt, in.DeliveryAt)
	}
}

func TestErrorTaxonomy_Wrapping(t *testing.T) {
	err := fmt.Errorf("insert: %w", ErrUnavailable)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected wrapped ErrUnavailable")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unexpected match with ErrInvalidInput")
	}
}
