// Package userdir loads the static user/group directory described in the
// wire protocol's external interface section: a small JSON document of
// known users (and their groups) checked at Login time.
//
// This mirrors original_source/src/data.rs's BackendData, which is loaded
// once via serde_json and handed to the backend at startup. Passwords are
// normally stored as bcrypt hashes; CompareHashAndPassword is the mechanism
// behind the "stored password differs" check at Login (cleartext stored
// values are also accepted, see comparePassword).
package userdir

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is one entry in the directory's user list.
type User struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Group is one entry in the directory's group list.
type Group struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// document is the on-disk JSON shape.
type document struct {
	Users  []User  `json:"users"`
	Groups []Group `json:"groups"`
}

// Directory is the loaded, indexed user/group directory.
type Directory struct {
	users  map[string]User
	groups map[string]Group
}

// Load reads and parses the directory JSON document at path.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("userdir: reading %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("userdir: parsing %s: %w", path, err)
	}

	d := &Directory{
		users:  make(map[string]User, len(doc.Users)),
		groups: make(map[string]Group, len(doc.Groups)),
	}
	for _, u := range doc.Users {
		d.users[u.Name] = u
	}
	for _, g := range doc.Groups {
		d.groups[g.Name] = g
	}
	return d, nil
}

// Verify reports whether name is a known user and password matches the
// stored credential. Unknown users always fail verification (no timing
// side-channel hardening is attempted; that is out of scope for a static
// local directory).
func (d *Directory) Verify(name, password string) bool {
	u, ok := d.users[name]
	if !ok {
		return false
	}
	return comparePassword(u.Password, password)
}

// Known reports whether name appears in the directory at all, independent
// of any password check — used to pre-seed Cache mailboxes for users who
// are known but not yet connected.
func (d *Directory) Known(name string) bool {
	_, ok := d.users[name]
	return ok
}

// Groups returns the names of the groups name belongs to.
func (d *Directory) Groups(name string) []string {
	var names []string
	for _, g := range d.groups {
		for _, u := range g.Users {
			if u == name {
				names = append(names, g.Name)
				break
			}
		}
	}
	return names
}

// comparePassword checks candidate against stored. A stored value with a
// bcrypt prefix ($2a$, $2b$, $2y$) is checked as a bcrypt hash; any other
// stored value, including one starting with "sha256:", is compared as
// cleartext, a pragmatic escape hatch for local testing fixtures.
func comparePassword(stored, candidate string) bool {
	switch {
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	default:
		return stored == candidate
	}
}

// HashPassword produces a bcrypt hash suitable for storage in the directory
// JSON document's password field.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("userdir: hashing password: %w", err)
	}
	return string(hashed), nil
}
