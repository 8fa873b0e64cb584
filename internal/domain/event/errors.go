package event

import "errors"

var (
	ErrUnknownKind         = errors.New("unknown event kind")
	ErrKindMismatch        = errors.New("specialization does not match event kind")
	ErrDriverRequired      = errors.New("driver reference is required")
	ErrTruckRequired       = errors.New("truck reference is required")
	ErrCompanyRequired     = errors.New("company reference is required")
	ErrOccurredAtRequired  = errors.New("event date is required")
	ErrNegativeFee         = errors.New("fee amount must not be negative")
	ErrInvalidDetail       = errors.New("invalid specialization detail")
	ErrFileNameRequired    = errors.New("file name is required")
	ErrFileContentMissing  = errors.New("file content is required for a new file")
	ErrRequiredDocument    = errors.New("required document is missing")
	ErrUnsupportedChildren = errors.New("collection is not supported for this event kind")
	ErrInvalidClaim        = errors.New("invalid claim")
	ErrInvalidViolation    = errors.New("invalid violation link")
)
