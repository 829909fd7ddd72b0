package prefs

import (
	"slices"
	"sort"

	"github.com/maruel/natural"
)

// State is the full set of stored preferences.
//
// Active is stored as a full Profile value, not a name, so a reader that only
// fetched the active key can still style a page. Editors keep it in sync with
// the matching entry of Profiles.
type State struct {
	Profiles     []Profile         `json:"profiles"`
	Active       Profile           `json:"activeProfile"`
	Exceptions   []string          `json:"siteExceptions"`
	SiteProfiles map[string]string `json:"siteProfiles"`
}

// Clone returns a deep copy of s. Nil collections become empty ones.
func (s State) Clone() State {
	out := State{
		Profiles:     slices.Clone(s.Profiles),
		Active:       s.Active,
		Exceptions:   slices.Clone(s.Exceptions),
		SiteProfiles: make(map[string]string, len(s.SiteProfiles)),
	}
	if out.Profiles == nil {
		out.Profiles = []Profile{}
	}
	if out.Exceptions == nil {
		out.Exceptions = []string{}
	}
	for k, v := range s.SiteProfiles {
		out.SiteProfiles[k] = v
	}
	return out
}

// FindProfile returns the profile called name.
func FindProfile(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

func indexOfProfile(profiles []Profile, name string) int {
	return slices.IndexFunc(profiles, func(p Profile) bool { return p.Name == name })
}

// Profile returns the profile called name from s.
func (s State) Profile(name string) (Profile, bool) {
	return FindProfile(s.Profiles, name)
}

// IsExcepted reports whether domain is in the exceptions list.
func (s State) IsExcepted(domain string) bool {
	return slices.Contains(s.Exceptions, domain)
}

// ProfileNames lists profile names in stored order.
func (s State) ProfileNames() []string {
	names := make([]string, len(s.Profiles))
	for i, p := range s.Profiles {
		names[i] = p.Name
	}
	return names
}

// SortedDomains returns the keys of a site map in natural order
// ("site2.com" before "site10.com").
func SortedDomains(siteProfiles map[string]string) []string {
	keys := make([]string, 0, len(siteProfiles))
	for k := range siteProfiles {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}
