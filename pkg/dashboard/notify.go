package dashboard

import (
	"context"
	"errors"

	"github.com/freddy208/crmprospect/pkg/crm"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	KindNone             Kind = ""
	KindNotFound         Kind = "not_found"
	KindInvalid          Kind = "invalid"
	KindUnauthenticated  Kind = "unauthenticated"
	KindPermissionDenied Kind = "permission_denied"
	KindAPI              Kind = "api"
	KindTransport        Kind = "transport"
	KindDecode           Kind = "decode"
	KindCanceled         Kind = "canceled"
	KindUnknown          Kind = "unknown"
)

// User-facing messages for failures whose details are not shown.
const (
	MessageTryAgain    = "The server could not be reached. Check your connection and try again."
	MessageUnexpected  = "The server sent an unexpected response. Please try again later."
	MessageSignIn      = "Your session has expired. Please sign in again."
	MessageNotFound    = "The requested item does not exist or was deleted."
	MessageCanceled    = "The operation was canceled."
	MessageUnknownFail = "Something went wrong."
)

// Notification is what a view shows for a failed read or write.
type Notification struct {
	Kind    Kind
	Message string
	Status  int
	Details []string
	Err     error
}

// Toast reports whether the notification is a transient message rather than a
// view state. Not-found detail pages and expired sessions are view states.
func (n Notification) Toast() bool {
	return n.Kind != KindNone && n.Kind != KindNotFound && n.Kind != KindUnauthenticated
}

// Notify translates err into a notification. A nil error yields KindNone. API
// messages are shown verbatim; transport failures get a generic retry message and
// malformed responses are logged.
func (d *Dashboard) Notify(err error) Notification {
	if err == nil {
		return Notification{}
	}

	note := Notification{Err: err}

	var (
		denied     *crm.PermissionDeniedError
		validation *crm.ValidationError
		decodeErr  *crm.DecodeError
	)

	apiErr, isAPI := crm.AsAPIError(err)

	switch {
	case errors.As(err, &denied):
		note.Kind = KindPermissionDenied
		note.Message = denied.Error()
		note.Details = denied.Missing
	case errors.Is(err, crm.ErrNotAuthenticated):
		note.Kind = KindUnauthenticated
		note.Message = MessageSignIn
	case errors.As(err, &validation):
		note.Kind = KindInvalid
		note.Message = validation.Error()

		for _, field := range validation.Fields {
			note.Details = append(note.Details, field.Field)
		}
	case isAPI:
		note.Status = apiErr.Status
		note.Message = apiErr.Message
		note.Details = apiErr.Details

		switch {
		case crm.IsNotFound(apiErr):
			note.Kind = KindNotFound
		case crm.IsUnauthorized(apiErr):
			note.Kind = KindUnauthenticated
		case crm.IsInvalidInput(apiErr):
			note.Kind = KindInvalid
		default:
			note.Kind = KindAPI
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		note.Kind = KindCanceled
		note.Message = MessageCanceled
	case crm.IsTransport(err):
		note.Kind = KindTransport
		note.Message = MessageTryAgain
	case errors.As(err, &decodeErr):
		note.Kind = KindDecode
		note.Message = MessageUnexpected
		d.logError("malformed response", err, map[string]interface{}{"target": decodeErr.Target})
	case errors.Is(err, crm.ErrNotFound):
		note.Kind = KindNotFound
		note.Message = MessageNotFound
	default:
		note.Kind = KindUnknown
		note.Message = MessageUnknownFail
		d.logError("unexpected failure", err, nil)
	}

	return note
}

func (d *Dashboard) logError(msg string, err error, fields map[string]interface{}) {
	if d.logger == nil {
		return
	}

	if fields == nil {
		fields = make(map[string]interface{})
	}

	fields["error"] = err.Error()
	d.logger.Error(msg, fields)
}
