// Package domain defines the persistence model for time-locked messages and
// the value types shared by the repository, service and HTTP layers. Message
// is mapped with GORM and forms the core data layer of the vault.
package domain

import "time"

// LockState is the derived readability of a message. It is never persisted;
// it is recomputed from the delivery instant and the current time on every read.
type LockState string

const (
	// Locked means the delivery instant has not been reached yet.
	Locked LockState = "locked"
	// Unlocked means the delivery instant has passed.
	Unlocked LockState = "unlocked"
)

// Attachment references a blob held by the attachment store.
type Attachment struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

// Message is a write-once vault entry owned by a single user.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned by the repository.
//   - OwnerID: identifier of the submitting user; indexed with SubmittedAt
//     for owner-scoped listing in insertion order.
//   - OwnerEmail: denormalised owner email captured at submission time.
//   - Text: message body, never empty.
//   - AttachmentURL / AttachmentMIMEType: optional attachment reference;
//     empty strings mean "no attachment". Use Attachment() to read it.
//   - SubmittedAt: server-assigned insertion time.
//   - DeliveryAt: instant after which the message becomes readable.
//
// There is no UpdatedAt or DeletedAt: messages are never mutated or deleted.
type Message struct {
	ID                 string    `json:"id"          gorm:"type:char(36);primaryKey"`
	OwnerID            string    `json:"owner_id"    gorm:"type:varchar(128);not null;index:idx_owner_msgs,priority:1"`
	OwnerEmail         string    `json:"owner_email" gorm:"type:varchar(320);not null;default:''"`
	Text               string    `json:"text"        gorm:"type:text;not null"`
	AttachmentURL      string    `json:"-"           gorm:"type:text;not null;default:''"`
	AttachmentMIMEType string    `json:"-"           gorm:"type:varchar(255);not null;default:''"`
	SubmittedAt        time.Time `json:"submitted_at" gorm:"not null;index:idx_owner_msgs,priority:2"`
	DeliveryAt         time.Time `json:"delivery_at"  gorm:"not null"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Attachment returns the attachment reference, or nil when the message has none.
func (m Message) Attachment() *Attachment {
	if m.AttachmentURL == "" {
		return nil
	}
	return &Attachment{URL: m.AttachmentURL, MIMEType: m.AttachmentMIMEType}
}
