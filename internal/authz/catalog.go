package authz

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Catalog is the process-wide immutable registry of every capability the
// platform understands. It is built once at startup and never mutated;
// lookups are safe from any goroutine without locking.
type Catalog struct {
	byID     map[string]Permission
	byModule map[string][]string
	byAction map[string][]string
	ids      []string
}

// PermissionDef seeds one catalog entry. DisplayName and Description are
// optional; a missing display name is derived from the id.
type PermissionDef struct {
	ID             string
	DisplayName    string
	Description    string
	SuperAdminOnly bool
}

var titleCaser = cases.Title(language.English)

// NewCatalog builds an immutable catalog from definitions. Ids must be
// unique and follow the "<module>.<action>" format.
func NewCatalog(defs []PermissionDef) (*Catalog, error) {
	c := &Catalog{
		byID:     make(map[string]Permission, len(defs)),
		byModule: make(map[string][]string),
		byAction: make(map[string][]string),
	}
	for _, def := range defs {
		id := strings.TrimSpace(strings.ToLower(def.ID))
		module, action, ok := strings.Cut(id, ".")
		if !ok || module == "" || action == "" {
			return nil, fmt.Errorf("authz: invalid permission id %q", def.ID)
		}
		if _, exists := c.byID[id]; exists {
			return nil, fmt.Errorf("authz: duplicate permission id %q", id)
		}
		display := def.DisplayName
		if display == "" {
			display = titleCaser.String(action + " " + module)
		}
		c.byID[id] = Permission{
			ID:             id,
			Module:         module,
			Action:         action,
			DisplayName:    display,
			Description:    def.Description,
			SuperAdminOnly: def.SuperAdminOnly,
		}
		c.byModule[module] = append(c.byModule[module], id)
		c.byAction[action] = append(c.byAction[action], id)
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Get returns the permission for id, false when unknown.
func (c *Catalog) Get(id string) (Permission, bool) {
	perm, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return perm, ok
}

// Exists reports whether id names a known permission.
func (c *Catalog) Exists(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// All returns a copy of the full id to permission mapping.
func (c *Catalog) All() map[string]Permission {
	out := make(map[string]Permission, len(c.byID))
	for id, perm := range c.byID {
		out[id] = perm
	}
	return out
}

// IDs returns every permission id in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// ByModule returns all permissions owned by module.
func (c *Catalog) ByModule(module string) []Permission {
	return c.collect(c.byModule[strings.ToLower(module)])
}

// ByAction returns all permissions sharing an action token.
func (c *Catalog) ByAction(action string) []Permission {
	return c.collect(c.byAction[strings.ToLower(action)])
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.ids)
}

func (c *Catalog) collect(ids []string) []Permission {
	perms := make([]Permission, 0, len(ids))
	for _, id := range ids {
		perms = append(perms, c.byID[id])
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms
}
