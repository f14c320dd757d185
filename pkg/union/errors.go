package union

import (
	"errors"

	"github.com/clockworklabs/sszunion/pkg/ssz"
)

var (
	ErrUnregisteredVariant       = errors.New("union: unregistered variant")
	ErrUnknownSelector           = errors.New("union: unknown selector")
	ErrUnsupportedVariantPayload = errors.New("union: unsupported variant payload")
	ErrShortBuffer               = errors.New("union: destination buffer too small")

	// ErrTruncatedInput is shared with the element codec so one errors.Is
	// check covers a missing selector and a short payload.
	ErrTruncatedInput = ssz.ErrTruncatedInput

	ErrEmptyRegistry    = errors.New("union: registry has no variants")
	ErrTooManyVariants  = errors.New("union: more than 256 variants")
	ErrInvalidVariant   = errors.New("union: invalid variant")
	ErrDuplicateVariant = errors.New("union: duplicate variant")

	ErrDuplicateKind = errors.New("union: kind already in catalog")
	ErrUnknownKind   = errors.New("union: unknown kind")
)
