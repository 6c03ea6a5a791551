package authz

import "strings"

// Normalizer converts role payloads into concrete catalog permission
// sets for a given principal.
type Normalizer struct {
	catalog *Catalog
}

// NewNormalizer builds a Normalizer over the catalog.
func NewNormalizer(catalog *Catalog) *Normalizer {
	return &Normalizer{catalog: catalog}
}

// NormalizeRole resolves one role payload into the set of permission ids
// it grants to a principal. Enumerated payloads use the enumerated
// algorithm, everything else the cartesian one. Super-admin-only catalog
// entries and wildcard grants fail closed for ordinary administrators.
func (n *Normalizer) NormalizeRole(payload RolePayload, superAdmin bool) map[string]struct{} {
	if payload.Enumerated() {
		return n.normalizeEnumerated(payload.Specific, superAdmin)
	}
	return n.normalizeCartesian(payload.Modules, payload.Actions, superAdmin)
}

func (n *Normalizer) normalizeEnumerated(refs []PermissionRef, superAdmin bool) map[string]struct{} {
	granted := make(map[string]struct{})
	for _, ref := range refs {
		if ref.IsWildcard() {
			// The "all" token grants the entire catalog, but only to
			// super-admins. For anyone else the entry is skipped.
			if superAdmin {
				for _, id := range n.catalog.IDs() {
					granted[id] = struct{}{}
				}
			}
			continue
		}
		id := ref.ID()
		if id == "" {
			continue
		}
		perm, ok := n.catalog.Get(id)
		if !ok {
			// Try the read/view synonym before giving up.
			perm, ok = n.catalog.Get(aliasID(id))
			if !ok {
				continue
			}
		}
		if perm.SuperAdminOnly && !superAdmin {
			continue
		}
		granted[perm.ID] = struct{}{}
	}
	return granted
}

func (n *Normalizer) normalizeCartesian(modules, actions []string, superAdmin bool) map[string]struct{} {
	granted := make(map[string]struct{})
	if len(modules) == 0 || len(actions) == 0 {
		return granted
	}
	allModules := contains(modules, WildcardAll)
	allActions := contains(actions, WildcardAll)
	actionSet := toSet(actions)
	moduleSet := toSet(modules)

	for id, perm := range n.catalog.All() {
		if perm.SuperAdminOnly && !superAdmin {
			continue
		}
		if !allModules {
			if _, ok := moduleSet[perm.Module]; !ok {
				continue
			}
		}
		if !allActions {
			if _, ok := actionSet[perm.Action]; !ok {
				continue
			}
		}
		granted[id] = struct{}{}
	}
	return granted
}

// aliasID swaps a read/view action suffix so an id authored with one
// synonym still resolves against a catalog entry stored with the other.
func aliasID(id string) string {
	module, action, ok := strings.Cut(id, ".")
	if !ok {
		return id
	}
	switch action {
	case ActionRead:
		return module + "." + ActionView
	case ActionView:
		return module + "." + ActionRead
	}
	return id
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
