package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a gateway failure. Callers branch on the kind, never on
// message text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuth: the access token was rejected.
	KindAuth
	// KindRateLimited: the caller should back off. Not fatal.
	KindRateLimited
	KindNotFound
	// KindValidation: the remote rejected caller-supplied data.
	KindValidation
	// KindTransient: timeout or connection failure; safe to retry.
	KindTransient
	// KindProtocol: the response did not have the expected shape.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindProtocol:
		return "protocol"
	}
	return "unknown"
}

// UserError is one entry of a mutation's userErrors list.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// Error is returned by every gateway operation that fails.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	Status     int
	UserErrors []UserError
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("catalog")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match against the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrAuth        = &Error{Kind: KindAuth}
	ErrRateLimited = &Error{Kind: KindRateLimited}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrTransient   = &Error{Kind: KindTransient}
	ErrProtocol    = &Error{Kind: KindProtocol}
)

// KindOf returns the kind of a gateway error, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// userErrorsToError turns a non-empty userErrors list into a validation
// error, or not-found when the remote says the target does not exist.
func userErrorsToError(op string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	kind := KindValidation
	for _, ue := range errs {
		msgs = append(msgs, ue.Message)
		m := strings.ToLower(ue.Message)
		if strings.Contains(m, "does not exist") || strings.Contains(m, "not found") || ue.Code == "NOT_FOUND" {
			kind = KindNotFound
		}
	}
	return &Error{Kind: kind, Op: op, Message: strings.Join(msgs, "; "), UserErrors: errs}
}
