// Package apperr holds the error taxonomy shared by the parser, router and mover.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	ErrNoHeader        = errors.New("no header")
	ErrUndefinedKey    = errors.New("list item before any property key")
	ErrMissingProperty = errors.New("missing required property")
	ErrNoRoutingMatch  = errors.New("no routing match")
	ErrConfig          = errors.New("invalid configuration")
)

// Kind names used in logs and reports.
const (
	KindNoHeader          = "NoHeader"
	KindUndefinedKey      = "UndefinedKeyForValue"
	KindMissingProperty   = "MissingRequiredProperty"
	KindNoRoutingMatch    = "NoRoutingMatch"
	KindDestinationExists = "DestinationExists"
	KindOtherIO           = "OtherIOError"
)

// Kind classifies err into one of the taxonomy names. Anything unknown is
// reported as an I/O error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoHeader):
		return KindNoHeader
	case errors.Is(err, ErrUndefinedKey):
		return KindUndefinedKey
	case errors.Is(err, ErrMissingProperty):
		return KindMissingProperty
	case errors.Is(err, ErrNoRoutingMatch):
		return KindNoRoutingMatch
	case errors.Is(err, ErrAlreadyExists):
		return KindDestinationExists
	default:
		return KindOtherIO
	}
}
