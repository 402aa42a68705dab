// Package services – VaultService
//
// This file implements VaultService, the application-level component that owns
// the submission and listing of time-locked messages. It validates inputs,
// uploads an optional attachment, persists the record with the process-wide
// delivery instant, and annotates every listed record with its lock state.
//
// Lock state is never stored: it is computed on each read from the record's
// delivery instant and the clock's current time. Text is returned as stored
// regardless of lock state; hiding locked content is a presentation concern.
//
// Observability: all public methods are OpenTelemetry-instrumented and
// submissions are counted in Prometheus by outcome.

package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-time-vault/internal/attachments"
	"github.com/tbourn/go-time-vault/internal/clock"
	"github.com/tbourn/go-time-vault/internal/domain"
	"github.com/tbourn/go-time-vault/internal/repo"
	"github.com/tbourn/go-time-vault/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxFilenameRunes = 100

// MessageStore is the persistence contract the service depends on.
// *repo.Messages satisfies it.
type MessageStore interface {
	Insert(ctx context.Context, in repo.NewMessage) (*domain.Message, error)
	QueryByOwner(ctx context.Context, ownerID string) ([]domain.Message, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	QueryByOwnerPage(ctx context.Context, ownerID string, offset, limit int) ([]domain.Message, error)
	Stats(ctx context.Context, ownerID string) (int64, *time.Time, error)
}

// Upload is an attachment as received from the caller.
type Upload struct {
	Filename string
	Data     []byte
}

// SubmitInput carries one submission. OwnerID and OwnerEmail come from the
// authenticated identity, never from the request body.
type SubmitInput struct {
	OwnerID    string
	OwnerEmail string
	Text       string
	Attachment *Upload
}

// Entry is a stored message paired with its lock state at read time.
type Entry struct {
	Message   domain.Message
	LockState domain.LockState
}

// Status describes the vault's delivery countdown.
type Status struct {
	DeliveryAt time.Time
	Now        time.Time
	LockState  domain.LockState
	Remaining  time.Duration
}

// VaultService coordinates attachment upload, persistence and lock-state
// evaluation.
type VaultService struct {
	Messages    MessageStore
	Attachments attachments.Store // nil disables attachments
	Clock       clock.Clock

	// Optional guards
	Timeout            time.Duration // per call, on top of the caller's deadline
	MaxTextRunes       int
	MaxAttachmentBytes int64
	AllowedTypes       []string // "image/" style prefixes or exact types; empty allows all
}

// Submit validates the input, uploads the attachment (if any) and stores the
// message with the fixed delivery instant.
//
// No record is written when validation, upload or the context fails. A blob
// uploaded before a failed insert is left behind.
func (s *VaultService) Submit(ctx context.Context, in SubmitInput) (m *domain.Message, err error) {
	tr := otel.Tracer("services/VaultService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", in.OwnerID),
			attribute.Bool("attachment", in.Attachment != nil),
		),
	)
	defer span.End()
	defer func() { vaultSubmissions.WithLabelValues(outcomeOf(err)).Inc() }()

	// Normalize & validate
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		return nil, ErrEmptyOwner
	}
	// The text is stored exactly as sent. Trimming and NFC only decide
	// emptiness and the length cap, so combining sequences count once.
	trimmed := strings.TrimSpace(in.Text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(norm.NFC.String(trimmed)) > s.MaxTextRunes {
		return nil, ErrTextTooLong
	}

	var mimeType string
	if a := in.Attachment; a != nil {
		if s.Attachments == nil {
			return nil, ErrAttachmentsDisabled
		}
		if len(a.Data) == 0 {
			return nil, ErrEmptyAttachment
		}
		if s.MaxAttachmentBytes > 0 && int64(len(a.Data)) > s.MaxAttachmentBytes {
			return nil, ErrAttachmentTooLarge
		}
		mimeType, _, _ = strings.Cut(mimetype.Detect(a.Data).String(), ";")
		if !s.typeAllowed(mimeType) {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentType, mimeType)
		}
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var att *domain.Attachment
	if a := in.Attachment; a != nil {
		url, err := s.Attachments.Put(ctx, owner, attachmentName(a.Filename), a.Data, mimeType)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, fmt.Errorf("upload attachment: %w: %w", domain.ErrUnavailable, cerr)
			}
			if !errors.Is(err, domain.ErrUploadFailed) {
				err = fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
			}
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		att = &domain.Attachment{URL: url, MIMEType: mimeType}
		vaultAttachmentBytes.Observe(float64(len(a.Data)))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("insert message: %w: %w", domain.ErrUnavailable, err)
	}

	m, err = s.Messages.Insert(ctx, repo.NewMessage{
		OwnerID:    owner,
		OwnerEmail: strings.TrimSpace(in.OwnerEmail),
		Text:       in.Text,
		Attachment: att,
		DeliveryAt: s.Clock.DeliveryAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	span.SetAttributes(attribute.String("message.id", m.ID))
	return m, nil
}

// ListForOwner returns every message of ownerID in insertion order, each
// paired with its lock state. All entries are evaluated against the same
// instant.
func (s *VaultService) ListForOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	tr := otel.Tracer("services/VaultService")
	ctx, span := tr.Start(ctx, "ListForOwner",
		trace.WithAttributes(attribute.String("user.id", ownerID)),
	)
	defer span.End()

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.Messages.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return s.annotate(records), nil
}

// ListPage returns one page of the owner's messages with lock states, plus
// the owner's total message count.
func (s *VaultService) ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]Entry, int64, error) {
	tr := otel.Tracer("services/VaultService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, 0, ErrEmptyOwner
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.Offset(page, pageSize)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	total, err := s.Messages.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	if total == 0 {
		return []Entry{}, 0, nil
	}

	records, err := s.Messages.QueryByOwnerPage(ctx, ownerID, offset, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages page: %w", err)
	}
	return s.annotate(records), total, nil
}

// Stats returns the owner's message count and newest submission time.
func (s *VaultService) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, latest, err := s.Messages.Stats(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return 0, nil, fmt.Errorf("message stats: %w", err)
	}
	return count, latest, nil
}

// Status reports the delivery instant, the current time and the countdown.
func (s *VaultService) Status(ctx context.Context) Status {
	_, span := otel.Tracer("services/VaultService").Start(ctx, "Status")
	defer span.End()

	now := s.Clock.Now()
	at := s.Clock.DeliveryAt()
	return Status{
		DeliveryAt: at,
		Now:        now,
		LockState:  clock.LockStateAt(at, now),
		Remaining:  clock.Remaining(at, now),
	}
}

func (s *VaultService) annotate(records []domain.Message) []Entry {
	now := s.Clock.Now()
	return lo.Map(records, func(m domain.Message, _ int) Entry {
		return Entry{Message: m, LockState: clock.LockStateAt(m.DeliveryAt, now)}
	})
}

func (s *VaultService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(ctx, s.Timeout)
	}
	return ctx, func() {}
}

func (s *VaultService) typeAllowed(mimeType string) bool {
	if len(s.AllowedTypes) == 0 {
		return true
	}
	return lo.ContainsBy(s.AllowedTypes, func(p string) bool {
		if strings.HasSuffix(p, "/") {
			return strings.HasPrefix(mimeType, p)
		}
		return mimeType == p
	})
}

// attachmentName turns a client filename into a unique, path-free blob name.
func attachmentName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '/' {
			return -1
		}
		return r
	}, name)
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		name = "attachment"
	}
	if utf8.RuneCountInString(name) > maxFilenameRunes {
		name = string([]rune(name)[:maxFilenameRunes])
	}
	return uuid.NewString() + "_" + name
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrInvalidInput):
		return outcomeInvalid
	case errors.Is(err, domain.ErrUploadFailed):
		return outcomeUploadFailed
	default:
		return outcomeUnavailable
	}
}
