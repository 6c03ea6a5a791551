package authz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PermissionRef is one entry of an enumerated-form payload. Either
// PermissionKey names a catalog id directly, or Module and Action are
// joined as "<module>.<action>".
type PermissionRef struct {
	PermissionKey string `json:"permission_key,omitempty"`
	Module        string `json:"module,omitempty"`
	Action        string `json:"action,omitempty"`
}

// ID resolves the catalog id this reference points at.
func (r PermissionRef) ID() string {
	if key := strings.TrimSpace(strings.ToLower(r.PermissionKey)); key != "" {
		return key
	}
	module := strings.TrimSpace(strings.ToLower(r.Module))
	action := strings.TrimSpace(strings.ToLower(r.Action))
	if module == "" || action == "" {
		return ""
	}
	return module + "." + action
}

// IsWildcard reports whether the reference carries the "all" token in
// either position.
func (r PermissionRef) IsWildcard() bool {
	return strings.EqualFold(strings.TrimSpace(r.Module), WildcardAll) ||
		strings.EqualFold(strings.TrimSpace(r.Action), WildcardAll)
}

// RolePayload is the decoded permission payload of one role definition.
// The two accepted shapes are mutually exclusive per role: the presence
// of the specific_permissions key selects the enumerated form, anything
// else falls back to the cartesian modules x actions form.
type RolePayload struct {
	Modules  []string
	Actions  []string
	Specific []PermissionRef

	enumerated bool
}

// Enumerated reports whether the payload carried the enumerated-form key.
func (p RolePayload) Enumerated() bool {
	return p.enumerated
}

const specificPermissionsKey = "specific_permissions"

// ParsePayload decodes a raw role payload. A payload that is not a JSON
// object, or whose fields have the wrong shape, yields
// ErrMalformedPayload so the caller can skip the role's contribution.
func ParsePayload(raw json.RawMessage) (RolePayload, error) {
	var payload RolePayload
	if len(raw) == 0 {
		return payload, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if rawSpecific, ok := fields[specificPermissionsKey]; ok {
		payload.enumerated = true
		if err := json.Unmarshal(rawSpecific, &payload.Specific); err != nil {
			return RolePayload{}, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, specificPermissionsKey, err)
		}
		return payload, nil
	}

	if rawModules, ok := fields["modules"]; ok {
		if err := json.Unmarshal(rawModules, &payload.Modules); err != nil {
			return RolePayload{}, fmt.Errorf("%w: modules: %v", ErrMalformedPayload, err)
		}
	}
	if rawActions, ok := fields["actions"]; ok {
		if err := json.Unmarshal(rawActions, &payload.Actions); err != nil {
			return RolePayload{}, fmt.Errorf("%w: actions: %v", ErrMalformedPayload, err)
		}
	}
	payload.Modules = lowerTrim(payload.Modules)
	payload.Actions = expandActionAliases(lowerTrim(payload.Actions))
	return payload, nil
}

func lowerTrim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// expandActionAliases applies the read/view synonym rule: a payload
// authored with either token matches catalog entries stored as the other.
func expandActionAliases(actions []string) []string {
	seen := make(map[string]struct{}, len(actions))
	out := make([]string, 0, len(actions)+2)
	add := func(a string) {
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	for _, a := range actions {
		add(a)
		switch a {
		case ActionRead:
			add(ActionView)
		case ActionView:
			add(ActionRead)
		}
	}
	return out
}
