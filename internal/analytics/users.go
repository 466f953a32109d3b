package analytics

import (
	"sort"
	"strings"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// DisplayName joins the user's names and strips the corporate suffix.
func DisplayName(u *domain.User, corporateSuffix string) string {
	name := u.FullName()
	if corporateSuffix != "" {
		lower := strings.ToLower(name)
		suffix := " " + strings.ToLower(strings.TrimSpace(corporateSuffix))
		if i := strings.Index(lower, suffix); i >= 0 {
			name = name[:i] + name[i+len(suffix):]
		}
	}
	return strings.TrimSpace(name)
}

// ClassifyUser types an account from its display name.
func ClassifyUser(name string, s Settings) domain.UserType {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, s.ExcludedKeywords):
		return domain.UserTypeExcluded
	case containsAny(lower, s.NonCommercialNames):
		return domain.UserTypeNonCommercial
	case containsAny(lower, s.ManagerNames):
		return domain.UserTypeManager
	default:
		return domain.UserTypeCommercial
	}
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// directory resolves owner ids against the active users of a snapshot.
type directory struct {
	settings Settings
	active   map[string]*domain.User
	names    map[string]string
	types    map[string]domain.UserType
}

func newDirectory(users []domain.User, s Settings) *directory {
	d := &directory{
		settings: s,
		active:   make(map[string]*domain.User, len(users)),
		names:    make(map[string]string, len(users)),
		types:    make(map[string]domain.UserType, len(users)),
	}
	for i := range users {
		u := &users[i]
		if !u.Active || u.ID == "" {
			continue
		}
		name := DisplayName(u, s.CorporateSuffix)
		d.active[u.ID] = u
		d.names[u.ID] = name
		d.types[u.ID] = ClassifyUser(name, s)
	}
	return d
}

// Name returns the owner's display name or UnknownOwner.
func (d *directory) Name(id string) string {
	if name, ok := d.names[id]; ok && name != "" {
		return name
	}
	return UnknownOwner
}

// IsActive reports whether id belongs to an active user.
func (d *directory) IsActive(id string) bool {
	_, ok := d.active[id]
	return ok
}

// Type returns the user type; unknown ids are treated as excluded.
func (d *directory) Type(id string) domain.UserType {
	if t, ok := d.types[id]; ok {
		return t
	}
	return domain.UserTypeExcluded
}

// hiddenFromGroups reports owners left out of grouped output: unresolved
// owners and test, demo or admin accounts.
func (d *directory) hiddenFromGroups(id string) bool {
	name := d.Name(id)
	if name == UnknownOwner {
		return true
	}
	return containsAny(strings.ToLower(name), d.settings.ExcludedKeywords)
}

// isAllocatable reports owners eligible for lead allocation.
func (d *directory) isAllocatable(id string) bool {
	if !d.IsActive(id) {
		return false
	}
	t := d.Type(id)
	return t == domain.UserTypeCommercial || t == domain.UserTypeManager
}

// reportingUsers returns active, non-excluded user ids sorted by display name.
func (d *directory) reportingUsers() []string {
	ids := make([]string, 0, len(d.active))
	for id := range d.active {
		if d.Type(id) != domain.UserTypeExcluded {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := d.Name(ids[i]), d.Name(ids[j])
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids
}
