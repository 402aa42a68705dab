// Attachment HTTP handler.
//
// GET /attachments/*key streams a stored blob with its recorded MIME type.
// Keys are the trailing part of the URL returned at submission; knowing the
// URL is sufficient to read the blob.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetAttachment godoc
// @ID          getAttachment
// @Summary     Download an attachment
// @Description Streams the attachment stored under key with its detected MIME type.
// @Tags        Attachments
// @Produce     octet-stream
//
// @Param       key  path  string  true  "Attachment key as found in the message's attachment URL"
//
// @Success     200  {file}   file
// @Failure     404  {object} handlers.ErrorResponse "Attachment not found"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /attachments/{key} [get]
func (h *Handlers) GetAttachment(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if h.files == nil || key == "" {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "attachment not found")
		return
	}

	rc, mimeType, err := h.files.Open(c.Request.Context(), key)
	if err != nil {
		failFromErr(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, mimeType, rc, map[string]string{
		"Cache-Control":          "private, max-age=86400, immutable",
		"X-Content-Type-Options": "nosniff",
	})
}
