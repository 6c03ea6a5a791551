package authz

import (
	"encoding/json"
	"errors"
)

// Permission is an immutable catalog entry describing one capability.
type Permission struct {
	ID             string `json:"id"`
	Module         string `json:"module"`
	Action         string `json:"action"`
	DisplayName    string `json:"display_name"`
	Description    string `json:"description"`
	SuperAdminOnly bool   `json:"super_admin_only"`
}

// RoleRecord is the raw projection of one active role assigned to a
// principal, as returned by the role store.
type RoleRecord struct {
	ID      int64
	Name    string
	Payload json.RawMessage
}

// CallContext carries the resource flow a permission check happens in.
// It feeds the context override rule and nothing else.
type CallContext struct {
	Type   string
	Action string
}

// Options tunes a single decision request.
type Options struct {
	// SkipCache bypasses the cache layer for both read and populate,
	// forcing resolution from the role store. Callers needing
	// read-your-writes after a role mutation set this for one read.
	SkipCache bool
}

var (
	// ErrNotFound indicates an unknown permission id.
	ErrNotFound = errors.New("authz: not found")
	// ErrMalformedPayload indicates a role permission payload that does
	// not match either accepted shape.
	ErrMalformedPayload = errors.New("authz: malformed role payload")
)

const (
	// WildcardAll grants every catalog entry when used as a module or
	// action token. Honoured only for super-admins in enumerated form.
	WildcardAll = "all"

	// ActionRead and ActionView are treated as synonyms in cartesian
	// payloads.
	ActionRead = "read"
	ActionView = "view"
)
