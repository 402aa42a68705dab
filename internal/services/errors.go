// Package services defines the business logic of the message vault.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Every value wraps one of the domain sentinels, so callers may branch either
// on the specific cause or on the broader category with errors.Is.
// Translation into HTTP status codes happens in the handler layer.
package services

import (
	"fmt"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// Validation errors. All wrap domain.ErrInvalidInput.
var (
	// ErrEmptyOwner is returned when no owner identifier was supplied.
	ErrEmptyOwner = fmt.Errorf("%w: owner id is empty", domain.ErrInvalidInput)

	// ErrEmptyText is returned when the message text is empty after trimming.
	ErrEmptyText = fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)

	// ErrTextTooLong is returned when the text exceeds the configured rune limit.
	ErrTextTooLong = fmt.Errorf("%w: text too long", domain.ErrInvalidInput)

	// ErrEmptyAttachment is returned for a zero-byte attachment.
	ErrEmptyAttachment = fmt.Errorf("%w: attachment is empty", domain.ErrInvalidInput)

	// ErrAttachmentTooLarge is returned when an attachment exceeds the size limit.
	ErrAttachmentTooLarge = fmt.Errorf("%w: attachment too large", domain.ErrInvalidInput)

	// ErrAttachmentType is returned when the sniffed content type is not allowed.
	ErrAttachmentType = fmt.Errorf("%w: attachment type not allowed", domain.ErrInvalidInput)

	// ErrAttachmentsDisabled is returned when no attachment store is configured.
	ErrAttachmentsDisabled = fmt.Errorf("%w: attachments are disabled", domain.ErrInvalidInput)
)
