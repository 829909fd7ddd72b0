// Package resolve decides which text settings apply to a page.
//
// Precedence, first match wins:
//
//	1. the page's domain is in the site exceptions   -> no styling (nil)
//	2. the domain is mapped to an existing profile  -> that profile's settings
//	3. otherwise                                    -> the active profile's settings
//
// An empty domain (malformed or empty URL) never matches steps 1 and 2, even
// when an exception or map entry for "" exists. A site-map entry naming a
// profile that no longer exists is skipped, not reported.
//
// Every function here is a pure read of its inputs: nothing is mutated and
// the returned settings are a fresh copy.
package resolve

import (
	"slices"

	"github.com/hazyhaar/readstyle/prefs"
)

// Tier identifies which precedence step produced a decision.
type Tier string

const (
	TierException Tier = "exception"
	TierSite      Tier = "site"
	TierActive    Tier = "active"
)

// Decision is the full outcome of a resolution.
type Decision struct {
	Domain      string          `json:"domain"`
	Tier        Tier            `json:"tier"`
	ProfileName string          `json:"profileName,omitempty"`
	Settings    *prefs.Settings `json:"settings"`
	// Stale is set when the domain had a site-map entry naming a missing
	// profile and resolution fell through to the active profile.
	Stale bool `json:"stale,omitempty"`
}

// Snapshot is a read-only copy of the four stored collections.
type Snapshot struct {
	Exceptions   []string
	SiteProfiles map[string]string
	Profiles     []prefs.Profile
	Active       prefs.Profile
}

// SnapshotOf adapts an editor state.
func SnapshotOf(s prefs.State) Snapshot {
	return Snapshot{
		Exceptions:   s.Exceptions,
		SiteProfiles: s.SiteProfiles,
		Profiles:     s.Profiles,
		Active:       s.Active,
	}
}

// Resolve is Decide(...).Settings.
func Resolve(rawURL string, exceptions []string, siteMap map[string]string, profiles []prefs.Profile, active prefs.Profile) *prefs.Settings {
	return Decide(rawURL, exceptions, siteMap, profiles, active).Settings
}

// Decide applies the precedence rules to rawURL.
func Decide(rawURL string, exceptions []string, siteMap map[string]string, profiles []prefs.Profile, active prefs.Profile) Decision {
	d := Decision{Domain: ExtractDomain(rawURL)}

	if d.Domain != "" {
		if slices.Contains(exceptions, d.Domain) {
			d.Tier = TierException
			return d
		}
		if name, ok := siteMap[d.Domain]; ok {
			if p, found := prefs.FindProfile(profiles, name); found {
				d.Tier = TierSite
				d.ProfileName = p.Name
				d.Settings = copySettings(p.Settings)
				return d
			}
			d.Stale = true
		}
	}

	d.Tier = TierActive
	d.ProfileName = active.Name
	d.Settings = copySettings(active.Settings)
	return d
}

// Resolve resolves rawURL against the snapshot.
func (s Snapshot) Resolve(rawURL string) *prefs.Settings {
	return s.Decide(rawURL).Settings
}

// Decide resolves rawURL against the snapshot and reports the tier.
func (s Snapshot) Decide(rawURL string) Decision {
	return Decide(rawURL, s.Exceptions, s.SiteProfiles, s.Profiles, s.Active)
}

func copySettings(s prefs.Settings) *prefs.Settings {
	return &s
}
