package upload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds a RemoteError can wrap. Callers use errors.Is
// against these to branch on classification without inspecting status
// codes or message substrings directly.
var (
	// ErrTransient marks a failure the driver should retry with backoff.
	ErrTransient = errors.New("upload: transient failure")
	// ErrQuotaExceeded marks the account's daily quota as exhausted; the
	// caller must latch the cooperative stop signal.
	ErrQuotaExceeded = errors.New("upload: quota exceeded")
	// ErrUploadLimitExceeded marks the account's upload limit as reached;
	// the caller must latch the cooperative stop signal.
	ErrUploadLimitExceeded = errors.New("upload: account upload limit exceeded")
	// ErrChannelMissing marks an account with no channel to upload to.
	// Not latched: this is specific to one account, not the whole run.
	ErrChannelMissing = errors.New("upload: no channel for account")
)

// transientStatusCodes is the exact retryable HTTP status set from
// spec.md §4.4/§7.
var transientStatusCodes = map[int]bool{
	408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
}

// RemoteError is the classified outcome of one failed remote call.
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error // one of the sentinels above, or nil for PlatformOther
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload: remote error (status %d): %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("upload: remote error (status %d)", e.StatusCode)
}

// Unwrap lets errors.Is(err, ErrTransient) etc. see through RemoteError.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Classify maps an HTTP status code and response body to a RemoteError
// carrying the appropriate sentinel, per spec.md §7's error taxonomy:
// 403+quotaExceeded, 400+uploadLimitExceeded, youtubeSignupRequired (any
// status), the literal Transient status set, else PlatformOther (Err=nil).
// Grounded on graph.classifyStatus's status->sentinel mapping and
// upload_manager.py's literal substring checks on HttpError bodies.
func Classify(statusCode int, body string) *RemoteError {
	switch {
	case statusCode == 403 && strings.Contains(body, "quotaExceeded"):
		return &RemoteError{StatusCode: statusCode, Message: "Quota Exceeded", Err: ErrQuotaExceeded}
	case statusCode == 400 && strings.Contains(body, "uploadLimitExceeded"):
		return &RemoteError{StatusCode: statusCode, Message: "Account Upload Limit Exceeded", Err: ErrUploadLimitExceeded}
	case strings.Contains(body, "youtubeSignupRequired"):
		return &RemoteError{StatusCode: statusCode, Message: body, Err: ErrChannelMissing}
	case transientStatusCodes[statusCode]:
		return &RemoteError{StatusCode: statusCode, Message: body, Err: ErrTransient}
	default:
		return &RemoteError{StatusCode: statusCode, Message: body}
	}
}

// IsRetryable reports whether err should be retried by the backoff loop:
// either explicitly classified Transient, or an error with no HTTP status
// attached at all (a socket-level error or timeout below the HTTP layer).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return errors.Is(remoteErr.Err, ErrTransient)
	}

	return true
}
