package chat

import "github.com/infodancer/tchatd/internal/mailbox"

// State is a connection's position in the Login handshake, mirroring the
// pop3 package's State/TLSState split but with a single axis: a connection
// is either still unauthenticated (Open) or bound to a live mailbox (Auth).
type State int

const (
	// Open connections have not yet completed Login; only Login, Logout,
	// and Nop are legal requests.
	Open State = iota
	// Auth connections are bound to a mailbox and may Send, SetName,
	// Logout, or Nop.
	Auth
)

// Session tracks one connection's authentication state and, once
// authenticated, the mailbox bound to it.
type Session struct {
	state   State
	name    string
	mailbox *mailbox.Mailbox
}

// NewSession creates a Session in the Open state.
func NewSession() *Session {
	return &Session{state: Open}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Name returns the bound user name, or "" if still Open.
func (s *Session) Name() string {
	return s.name
}

// Mailbox returns the bound mailbox, or nil if still Open.
func (s *Session) Mailbox() *mailbox.Mailbox {
	return s.mailbox
}

// Authenticate transitions the session to Auth, binding name and box.
func (s *Session) Authenticate(name string, box *mailbox.Mailbox) {
	s.state = Auth
	s.name = name
	s.mailbox = box
}

// Rename updates the session's bound name after a successful SetName.
func (s *Session) Rename(name string) {
	s.name = name
}
