/*
 * file: wire.go
 * package: protocol
 * description:
 *     Fixed channel and module numbers (§6), the business-error type the
 *     services return, and small helpers for building response/notification
 *     Fields maps.
 */

package protocol

import "fmt"

// Channels. Channel 0 is the paired request/response channel; the rest are
// server-push notification categories.
const (
	ChannelResponse       = 0
	ChannelPresenceStatus = 13
	ChannelGameFound      = 14
	ChannelGameEvent      = 15
	ChannelGameInvitation = 16
)

// Modules. These are the first field of every channel-0 request.
const (
	ModuleAuth       = 3
	ModulePresence   = 4
	ModuleMatchmaker = 5
)

// AppError is a business error: the mux turns it into
// {status:"error", code:<Code>}; the connection is never closed for this.
type AppError struct {
	Code string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("app error: %s", e.Code)
}

// NewAppError builds an AppError carrying the given status-code token.
func NewAppError(code string) *AppError {
	return &AppError{Code: code}
}

// OK builds a successful response body with status "ok", merging in any
// extra fields supplied.
func OK(extra Fields) Fields {
	f := Fields{"status": "ok"}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// ErrorFields builds an error response body for the given status-code
// token.
func ErrorFields(code string) Fields {
	return Fields{"status": "error", "code": code}
}
