package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"personal-calendar/internal/service"
)

func (h *Handler) listEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventsToResponse(events))
}

func (h *Handler) getEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	event, err := h.events.Get(c.Request.Context(), identity(c).UserID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventToResponse(*event))
}

func (h *Handler) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	event, err := h.events.Create(c.Request.Context(), identity(c).UserID, service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Contacts:    req.Contacts,
		Start:       req.StartDate,
		End:         req.EndDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, eventToResponse(*event))
}

func (h *Handler) updateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	// A null title or date is treated as not sent; a null description or
	// contacts clears the field.
	patch := service.EventPatch{
		Title:       req.Title.ptr(),
		Description: service.TextPatch{Present: req.Description.Set, Value: req.Description.Value},
		Contacts:    service.TextPatch{Present: req.Contacts.Set, Value: req.Contacts.Value},
		Start:       req.StartDate.ptr(),
		End:         req.EndDate.ptr(),
	}

	event, err := h.events.Update(c.Request.Context(), identity(c).UserID, id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventToResponse(*event))
}

func (h *Handler) deleteEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), identity(c).UserID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Event deleted successfully"})
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, errInvalidID)
		return 0, false
	}
	return id, true
}
