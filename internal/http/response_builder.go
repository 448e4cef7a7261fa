package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMX events the dashboard listens for.
const (
	EventRecordsChanged   = "records:changed"
	EventFormReset        = "form:reset"
	EventShowNotification = "show-notification"
)

// NotificationType is the style of a toast shown by the page.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationError   NotificationType = "error"
)

// notificationDuration is how long each toast type stays visible, in ms.
var notificationDuration = map[NotificationType]int{
	NotificationSuccess: 3000,
	NotificationInfo:    3000,
	NotificationError:   5000,
}

// HTMXResponseBuilder collects the HX-Trigger events, status and optional
// HTML fragment of a response to an htmx request.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	fragment   string
}

// NewHTMXResponse starts a 200 response without events.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// StatusCode returns the status the response will be written with.
func (b *HTMXResponseBuilder) StatusCode() int {
	return b.statusCode
}

// Trigger adds an event to HX-Trigger. A later event of the same name
// replaces the earlier one.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerRecordsChanged tells every records view to reload. pending is the
// number of uncommitted edits after the change.
func (b *HTMXResponseBuilder) TriggerRecordsChanged(pending int) *HTMXResponseBuilder {
	return b.Trigger(EventRecordsChanged, map[string]int{"pending": pending})
}

// TriggerFormReset asks the page to clear the form with the given element id.
func (b *HTMXResponseBuilder) TriggerFormReset(formID string) *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, map[string]string{"form": formID})
}

// TriggerNotification shows a toast of the given type.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string) *HTMXResponseBuilder {
	duration, ok := notificationDuration[notifType]
	if !ok {
		duration = notificationDuration[NotificationInfo]
	}
	return b.Trigger(EventShowNotification, map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": duration,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) TriggerInfoNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationInfo, message)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message)
}

// Fragment sets an HTML body. The caller is responsible for escaping.
func (b *HTMXResponseBuilder) Fragment(html string) *HTMXResponseBuilder {
	b.fragment = html
	return b
}

// Write sends the response. Events are encoded as one JSON object.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	if len(b.triggers) > 0 {
		if events, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(events))
		}
	}
	if b.fragment != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(b.statusCode)
	if b.fragment != "" {
		_, _ = w.Write([]byte(b.fragment))
	}
}

// ErrorResponse answers with status, an error toast and an inline alert
// carrying the escaped message for clients that swap the body in.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		Fragment(`<p class="error" role="alert">` + template.HTMLEscapeString(message) + `</p>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func TooManyRequestsError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}
