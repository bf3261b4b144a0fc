package chat

import (
	"errors"

	"github.com/infodancer/tchatd/internal/registry"
	"github.com/infodancer/tchatd/internal/wire"
)

// errorCodeFor maps a registry error onto the wire error code a client
// should see. Any unrecognized error is the caller's fault to handle
// separately (it is a disconnect-worthy condition, not a wire-level one).
func errorCodeFor(err error) (wire.ErrorCode, bool) {
	switch {
	case errors.Is(err, registry.ErrDuplicate):
		return wire.Duplicate, true
	case errors.Is(err, registry.ErrNotFound):
		return wire.NotFound, true
	case errors.Is(err, registry.ErrUnauthorized):
		return wire.Unauthorized, true
	default:
		return "", false
	}
}
