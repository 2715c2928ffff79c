package http

import (
	"bytes"
	"encoding/json"
	"time"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/export"
	"personal-calendar/internal/storage"
)

type registerRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Contacts    *string `json:"contacts"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

type updateEventRequest struct {
	Title       optionalString `json:"title"`
	Description optionalString `json:"description"`
	Contacts    optionalString `json:"contacts"`
	StartDate   optionalString `json:"start_date"`
	EndDate     optionalString `json:"end_date"`
}

// optionalString tells "key absent" apart from "key sent as null".
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ptr returns the value only when a non-null string was sent.
func (o optionalString) ptr() *string { return o.Value }

type UserResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type EventResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Contacts    *string `json:"contacts"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	CreatedAt   string  `json:"created_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LinkResponse struct {
	URL string `json:"url"`
}

type PublishResponse struct {
	Key       string `json:"key"`
	Location  string `json:"location"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}
}

func eventToResponse(event domain.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		UserID:      event.UserID,
		Title:       event.Title,
		Description: event.Description,
		Contacts:    event.Contacts,
		StartDate:   export.ISOTime(event.Start),
		EndDate:     export.ISOTime(event.End),
		CreatedAt:   export.ISOTime(event.CreatedAt),
	}
}

func eventsToResponse(events []domain.Event) []EventResponse {
	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventToResponse(e))
	}
	return resp
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.UTC().Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
