// Vault HTTP handlers.
//
// This file exposes REST endpoints for the caller's time-locked messages:
//   - POST /messages   (submit text with an optional attachment)
//   - GET  /messages   (list own messages with lock state, paginated, ETag)
//   - GET  /vault      (delivery instant and countdown)
//
// Handlers are transport-thin: they read the authenticated owner from the
// Gin context, decode JSON or multipart bodies, call the VaultService and
// translate results and errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/tbourn/go-time-vault/internal/clock"
	"github.com/tbourn/go-time-vault/internal/domain"
	"github.com/tbourn/go-time-vault/internal/http/middleware"
	"github.com/tbourn/go-time-vault/internal/services"
	"github.com/tbourn/go-time-vault/internal/utils"
)

//
// Service contracts (context-aware)
//

// VaultService defines the vault operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type VaultService interface {
	// Submit stores a message for in.OwnerID, uploading the attachment first.
	Submit(ctx context.Context, in services.SubmitInput) (*domain.Message, error)
	// ListPage returns a page of the owner's entries and the total count.
	ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]services.Entry, int64, error)
	// Stats returns the owner's message count and newest submission time.
	Stats(ctx context.Context, ownerID string) (int64, *time.Time, error)
	// Status reports the delivery instant and countdown.
	Status(ctx context.Context) services.Status
}

// AttachmentOpener reads stored attachment blobs. A nil opener disables
// GET /attachments.
type AttachmentOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

//
// Handler wiring
//

// multipartMemory is the share of a multipart body kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// Handlers groups the vault HTTP endpoints.
type Handlers struct {
	vault   VaultService
	files   AttachmentOpener
	maxBody int64
}

// New constructs Handlers. maxBody caps POST /messages request bodies;
// zero or negative disables the cap.
func New(vault VaultService, files AttachmentOpener, maxBody int64) *Handlers {
	return &Handlers{vault: vault, files: files, maxBody: maxBody}
}

//
// DTOs
//

// SubmitMessageRequest is the JSON payload for POST /messages.
type SubmitMessageRequest struct {
	// Text is the message body, stored as sent. It must contain non-whitespace.
	Text string `json:"text" binding:"required" example:"hello future"`
}

// MessageDTO is the public representation of a stored message.
type MessageDTO struct {
	ID          string             `json:"id" example:"0b7c7d1e-4f2a-4d0c-9b8a-2f1c3e4d5a6b"`
	Text        string             `json:"text" example:"hello future"`
	Attachment  *domain.Attachment `json:"attachment,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at" example:"2025-10-18T12:00:00Z"`
	DeliveryAt  time.Time          `json:"delivery_at" example:"2026-01-01T00:00:00Z"`
}

// EntryDTO pairs a message with its lock state at response time.
type EntryDTO struct {
	Message   MessageDTO       `json:"message"`
	LockState domain.LockState `json:"lock_state" enums:"locked,unlocked" example:"locked"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMessagesResponse is a page of the caller's entries.
type ListMessagesResponse struct {
	Messages   []EntryDTO `json:"messages"`
	DeliveryAt time.Time  `json:"delivery_at" example:"2026-01-01T00:00:00Z"`
	Pagination Pagination `json:"pagination"`
}

// VaultStatusResponse describes the delivery instant relative to now.
type VaultStatusResponse struct {
	DeliveryAt       time.Time        `json:"delivery_at" example:"2026-01-01T00:00:00Z"`
	Now              time.Time        `json:"now" example:"2025-10-18T12:00:00Z"`
	LockState        domain.LockState `json:"lock_state" enums:"locked,unlocked" example:"locked"`
	RemainingSeconds int64            `json:"remaining_seconds" example:"6436800"`
}

func toMessageDTO(m domain.Message) MessageDTO {
	return MessageDTO{
		ID:          m.ID,
		Text:        m.Text,
		Attachment:  m.Attachment(),
		SubmittedAt: m.SubmittedAt,
		DeliveryAt:  m.DeliveryAt,
	}
}

func toEntryDTO(e services.Entry, _ int) EntryDTO {
	return EntryDTO{Message: toMessageDTO(e.Message), LockState: e.LockState}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// ceilSeconds rounds a countdown up so a locked vault never reports zero.
func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// readSubmission decodes the request body into a SubmitInput without the
// owner fields. Multipart bodies carry `text` and an optional `file` part.
func (h *Handlers) readSubmission(c *gin.Context) (services.SubmitInput, error) {
	var in services.SubmitInput

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		var req SubmitMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return in, err
		}
		in.Text = req.Text
		return in, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return in, err
	}
	in.Text = c.Request.FormValue("text")

	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, err
	}
	f, err := fh.Open()
	if err != nil {
		return in, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return in, err
	}
	in.Attachment = &services.Upload{Filename: fh.Filename, Data: data}
	return in, nil
}

//
// Handlers
//

// SubmitMessage godoc
// @ID          submitMessage
// @Summary     Submit a time-locked message
// @Description Stores a message for the caller. The message stays locked until the vault's delivery instant.
// @Description Send JSON `{ "text": "..." }`, or multipart/form-data with a `text` field and an optional `file` (image or video).
// @Tags        Messages
// @Accept      json
// @Accept      mpfd
// @Produce     json
//
// @Param       X-User-ID  header    string  false "User ID (header auth mode)"  example(user123)
// @Param       body       body      handlers.SubmitMessageRequest  false "Message payload (JSON)"
// @Param       text       formData  string  false "Message text (multipart)"
// @Param       file       formData  file    false "Attachment (multipart)"
//
// @Success     201  {object}  handlers.EntryDTO
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     413  {object}  handlers.ErrorResponse  "Payload too large"
// @Failure     502  {object}  handlers.ErrorResponse  "Attachment upload failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Security    BearerAuth
// @Router      /messages [post]
func (h *Handlers) SubmitMessage(c *gin.Context) {
	owner := middleware.UserID(c)
	if owner == "" {
		failFromErr(c, domain.ErrUnauthenticated)
		return
	}
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}

	in, err := h.readSubmission(c)
	switch {
	case err == nil:
	case isTooLarge(err):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", h.maxBody))
		return
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid body: text required")
		return
	}
	in.OwnerID = owner
	in.OwnerEmail = middleware.UserEmail(c)

	m, err := h.vault.Submit(c.Request.Context(), in)
	if err != nil {
		failFromErr(c, err)
		return
	}

	st := h.vault.Status(c.Request.Context())
	ok(c, http.StatusCreated, EntryDTO{
		Message:   toMessageDTO(*m),
		LockState: clock.LockStateAt(m.DeliveryAt, st.Now),
	})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List own messages (paginated)
// @Description Returns a page of the caller's messages in submission order, each with its current lock state.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (header auth mode)"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"vault:3:1760788800000000:locked:1:20\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Security    BearerAuth
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.UserID(c)
	if owner == "" {
		failFromErr(c, domain.ErrUnauthenticated)
		return
	}
	page, pageSize := clampPagination(c)
	st := h.vault.Status(ctx)

	// ETag pre-check (best effort). The lock state is part of the tag so
	// cached pages are invalidated when the vault opens.
	if count, latest, err := h.vault.Stats(ctx, owner); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixMicro()
		}
		etag := fmt.Sprintf(`W/"vault:%d:%d:%s:%d:%d"`, count, ts, st.LockState, page, pageSize)
		if notModified(c, etag) {
			return
		}
	}

	items, total, err := h.vault.ListPage(ctx, owner, page, pageSize)
	if err != nil {
		failFromErr(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   lo.Map(items, toEntryDTO),
		DeliveryAt: st.DeliveryAt,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetVault godoc
// @ID          getVault
// @Summary     Vault status
// @Description Returns the delivery instant, the server's current time, the lock state and the seconds remaining.
// @Tags        Vault
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header auth mode)"  example(user123)
//
// @Success     200  {object} handlers.VaultStatusResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Security    BearerAuth
// @Router      /vault [get]
func (h *Handlers) GetVault(c *gin.Context) {
	st := h.vault.Status(c.Request.Context())
	ok(c, http.StatusOK, VaultStatusResponse{
		DeliveryAt:       st.DeliveryAt,
		Now:              st.Now,
		LockState:        st.LockState,
		RemainingSeconds: ceilSeconds(st.Remaining),
	})
}
