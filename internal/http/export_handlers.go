package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"personal-calendar/internal/export"
)

const (
	icsContentType = "text/calendar; charset=utf-8"
	csvContentType = "text/csv; charset=utf-8"
)

func (h *Handler) exportCalendar(c *gin.Context) {
	body, err := h.exports.Calendar(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	attachment(c, "calendar.ics", icsContentType, body)
}

func (h *Handler) exportCSV(c *gin.Context) {
	body, err := h.exports.CSV(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	attachment(c, "calendar.csv", csvContentType, body)
}

func (h *Handler) exportEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	out, err := h.exports.Event(c.Request.Context(), identity(c).UserID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	attachment(c, export.Filename(out.Event.Title, ".ics"), icsContentType, out.ICS)
}

func (h *Handler) googleLink(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	link, err := h.exports.GoogleLink(c.Request.Context(), identity(c).UserID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, LinkResponse{URL: link})
}

func (h *Handler) publishCalendar(c *gin.Context) {
	pub, err := h.exports.Publish(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, PublishResponse{
		Key:       pub.Key,
		Location:  pub.Location,
		URL:       pub.URL,
		ExpiresAt: export.ISOTime(pub.ExpiresAt),
	})
}

func (h *Handler) listPublished(c *gin.Context) {
	objects, err := h.exports.ListPublished(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]StorageObjectResponse, 0, len(objects))
	for _, obj := range objects {
		resp = append(resp, objectToResponse(obj))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) revokePublished(c *gin.Context) {
	n, err := h.exports.Revoke(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Revoked %d published calendar(s)", n)})
}

func attachment(c *gin.Context, filename, contentType, body string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, []byte(body))
}
