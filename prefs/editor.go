package prefs

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrEmptyName       = errors.New("prefs: profile name is empty")
	ErrProfileExists   = errors.New("prefs: a profile with this name already exists")
	ErrProfileNotFound = errors.New("prefs: profile not found")
	ErrDefaultProfile  = errors.New("prefs: cannot delete or rename the default profile")
	ErrActiveProfile   = errors.New("prefs: cannot delete the active profile")
	ErrEmptyDomain     = errors.New("prefs: domain is empty")
	ErrDomainExists    = errors.New("prefs: domain already has a specific profile")
)

// SaveProfile inserts p or replaces the profile with the same name.
// When p is the active profile, Active is refreshed too.
func SaveProfile(s State, p Profile) (State, error) {
	if strings.TrimSpace(p.Name) == "" {
		return s, ErrEmptyName
	}
	out := s.Clone()
	if i := indexOfProfile(out.Profiles, p.Name); i >= 0 {
		out.Profiles[i] = p
	} else {
		out.Profiles = append(out.Profiles, p)
	}
	if out.Active.Name == p.Name {
		out.Active = p
	}
	return out, nil
}

// CreateProfile adds a new profile. The name is trimmed and must be unique.
func CreateProfile(s State, p Profile) (State, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return s, ErrEmptyName
	}
	if _, ok := s.Profile(p.Name); ok {
		return s, fmt.Errorf("%w: %q", ErrProfileExists, p.Name)
	}
	out := s.Clone()
	out.Profiles = append(out.Profiles, p)
	return out, nil
}

// RenameProfile replaces profile oldName with newName and settings.
// Renames cascade to Active and to every site-map entry that pointed at
// oldName. The Default profile keeps its name but its settings may change.
func RenameProfile(s State, oldName, newName string, settings Settings) (State, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return s, ErrEmptyName
	}
	i := indexOfProfile(s.Profiles, oldName)
	if i < 0 {
		return s, fmt.Errorf("%w: %q", ErrProfileNotFound, oldName)
	}
	if oldName == DefaultProfileName && newName != oldName {
		return s, ErrDefaultProfile
	}
	if newName != oldName {
		if _, ok := s.Profile(newName); ok {
			return s, fmt.Errorf("%w: %q", ErrProfileExists, newName)
		}
	}

	out := s.Clone()
	updated := Profile{Name: newName, Settings: settings}
	out.Profiles[i] = updated
	if out.Active.Name == oldName {
		out.Active = updated
	}
	if newName != oldName {
		for domain, name := range out.SiteProfiles {
			if name == oldName {
				out.SiteProfiles[domain] = newName
			}
		}
	}
	return out, nil
}

// DeleteProfile removes a profile and prunes site-map entries that used it.
// The Default profile and the active profile cannot be deleted.
func DeleteProfile(s State, name string) (State, error) {
	if s.Active.Name == name {
		return s, ErrActiveProfile
	}
	if name == DefaultProfileName {
		return s, ErrDefaultProfile
	}
	i := indexOfProfile(s.Profiles, name)
	if i < 0 {
		return s, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	out := s.Clone()
	out.Profiles = slices.DeleteFunc(out.Profiles, func(p Profile) bool { return p.Name == name })
	for domain, n := range out.SiteProfiles {
		if n == name {
			delete(out.SiteProfiles, domain)
		}
	}
	return out, nil
}

// SetActiveProfile makes the named profile active.
func SetActiveProfile(s State, name string) (State, error) {
	p, ok := s.Profile(name)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	out := s.Clone()
	out.Active = p
	return out, nil
}

// SetActiveSettings stores settings on the active profile and on its entry
// in Profiles, if that entry exists.
func SetActiveSettings(s State, settings Settings) State {
	out := s.Clone()
	out.Active.Settings = settings
	if i := indexOfProfile(out.Profiles, out.Active.Name); i >= 0 {
		out.Profiles[i] = out.Active
	}
	return out
}

// AddException adds domain to the exceptions list. Adding a domain that is
// already present is a no-op.
func AddException(s State, domain string) (State, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return s, ErrEmptyDomain
	}
	out := s.Clone()
	if !out.IsExcepted(domain) {
		out.Exceptions = append(out.Exceptions, domain)
	}
	return out, nil
}

// RemoveException drops domain from the exceptions list, if present.
func RemoveException(s State, domain string) State {
	out := s.Clone()
	out.Exceptions = slices.DeleteFunc(out.Exceptions, func(d string) bool { return d == domain })
	return out
}

// SetSiteProfile maps domain to a profile name, replacing any previous entry.
func SetSiteProfile(s State, domain, profileName string) (State, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return s, ErrEmptyDomain
	}
	if _, ok := s.Profile(profileName); !ok {
		return s, fmt.Errorf("%w: %q", ErrProfileNotFound, profileName)
	}
	out := s.Clone()
	out.SiteProfiles[domain] = profileName
	return out, nil
}

// AddSiteProfile is SetSiteProfile that refuses to overwrite an existing
// entry, as the options page does for new rows.
func AddSiteProfile(s State, domain, profileName string) (State, error) {
	if _, ok := s.SiteProfiles[strings.TrimSpace(domain)]; ok {
		return s, fmt.Errorf("%w: %q", ErrDomainExists, domain)
	}
	return SetSiteProfile(s, domain, profileName)
}

// RemoveSiteProfile drops the site-map entry for domain, if present.
func RemoveSiteProfile(s State, domain string) State {
	out := s.Clone()
	delete(out.SiteProfiles, domain)
	return out
}

// Repair restores the invariants on a loaded state: the Default profile
// exists, Active names an existing profile (falling back to Default) and
// every site-map entry names an existing profile. It reports whether
// anything changed.
func Repair(s State) (State, bool) {
	out := s.Clone()
	changed := false

	if _, ok := out.Profile(DefaultProfileName); !ok {
		out.Profiles = append([]Profile{DefaultProfile}, out.Profiles...)
		changed = true
	}
	if p, ok := out.Profile(out.Active.Name); ok {
		if p != out.Active {
			out.Active = p
			changed = true
		}
	} else {
		out.Active, _ = out.Profile(DefaultProfileName)
		changed = true
	}
	for domain, name := range out.SiteProfiles {
		if _, ok := out.Profile(name); !ok {
			delete(out.SiteProfiles, domain)
			changed = true
		}
	}
	return out, changed
}
