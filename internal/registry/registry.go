// Package registry implements the server-wide directory of mailboxes
// ("Backend" in original_source/src/server/backend): a single
// coarse-locked name→mailbox map governing the Cache/Auth lifecycle.
//
// Grounded on original_source/src/server/backend/memory.rs's MemoryBackend:
// one mutex over one map, never held across blocking I/O — callers hold the
// lock only long enough to look up, insert, or remove map entries and flip a
// mailbox's status. Load promotes a Cache mailbox with SetAuth while still
// holding the lock, so the non-blocking notifier signal of that promotion is
// posted under it.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/infodancer/tchatd/internal/mailbox"
	"github.com/infodancer/tchatd/internal/userdir"
)

// Sentinel errors returned by registry operations; callers map these onto
// wire.ErrorCode values (Duplicate, NotFound, Unauthorized).
var (
	ErrDuplicate    = errors.New("registry: user already connected")
	ErrNotFound     = errors.New("registry: no such user")
	ErrUnauthorized = errors.New("registry: credential check failed")
)

// Registry is the server-wide name→mailbox directory.
type Registry struct {
	dir *userdir.Directory

	mu    sync.Mutex
	boxes map[string]*mailbox.Mailbox
}

// New creates a Registry backed by the given credential directory.
func New(dir *userdir.Directory) *Registry {
	return &Registry{
		dir:   dir,
		boxes: make(map[string]*mailbox.Mailbox),
	}
}

// Load authenticates name/password against the credential directory and
// binds an Auth mailbox to name. If a Cache mailbox already exists for
// name (messages arrived before this login), it is promoted to Auth and
// returned so its buffered Recv responses can be delivered. A second Load
// for an already-Auth name fails with ErrDuplicate, mirroring
// MemoryBackend::add_user's Cache→Auth-once semantics. A name absent from
// the directory fails with ErrNotFound, a wrong password with
// ErrUnauthorized.
func (r *Registry) Load(name, password string) (*mailbox.Mailbox, error) {
	if r.dir != nil && !r.dir.Known(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if r.dir != nil && !r.dir.Verify(name, password) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if box, ok := r.boxes[name]; ok {
		if box.Status() == mailbox.Cache {
			box.SetAuth()
			return box, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	box := mailbox.New(name, mailbox.Auth)
	r.boxes[name] = box
	return box, nil
}

// Unload removes name's mailbox from the registry entirely, used on
// logout/disconnect. Unlike the Rust MemoryBackend (which only ever
// removes, never demotes), tchatd has no notion of leaving a Cache
// placeholder behind after a clean logout — a fresh Ensure recreates one
// if another user sends to the now-offline name.
func (r *Registry) Unload(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boxes, name)
}

// Find looks up name's mailbox without creating one. It fails with
// ErrNotFound whenever name has no mailbox, whether or not the directory
// knows the name.
func (r *Registry) Find(name string) (*mailbox.Mailbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if box, ok := r.boxes[name]; ok {
		return box, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Ensure returns name's mailbox, creating a Cache mailbox for it if one
// does not already exist. Used by Send so a message to a known-but-offline
// user is buffered rather than dropped, grounded on
// MemoryBackend::ensure_user. Fails with ErrNotFound if name is not in the
// credential directory at all — Ensure never creates a mailbox for a name
// nobody registered.
func (r *Registry) Ensure(name string) (*mailbox.Mailbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if box, ok := r.boxes[name]; ok {
		return box, nil
	}
	if r.dir != nil && !r.dir.Known(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	box := mailbox.New(name, mailbox.Cache)
	r.boxes[name] = box
	return box, nil
}

// Rename moves an authenticated user's mailbox to a new name, used by the
// SetName request. Renaming to the current name is a no-op success. Fails
// with ErrNotFound if original has no live mailbox, or ErrDuplicate if name
// is already taken, grounded on MemoryBackend::rename_user.
func (r *Registry) Rename(original, name string) error {
	if original == name {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	box, ok := r.boxes[original]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, original)
	}
	if _, taken := r.boxes[name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	delete(r.boxes, original)
	box.Rename(name)
	r.boxes[name] = box
	return nil
}
