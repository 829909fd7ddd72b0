package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWithSites() State {
	s := DefaultState()
	s.SiteProfiles["news.example"] = NightProfile.Name
	s.SiteProfiles["docs.example"] = DyslexiaProfile.Name
	return s
}

func TestCreateProfile(t *testing.T) {
	s := DefaultState()

	out, err := CreateProfile(s, Profile{Name: "  Large  ", Settings: DefaultSettings})
	require.NoError(t, err)
	assert.Len(t, out.Profiles, 4)
	_, ok := out.Profile("Large")
	assert.True(t, ok, "name should be trimmed")
	assert.Len(t, s.Profiles, 3, "input state must not change")

	_, err = CreateProfile(out, Profile{Name: "Large"})
	assert.ErrorIs(t, err, ErrProfileExists)

	_, err = CreateProfile(s, Profile{Name: "   "})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestSaveProfileRefreshesActive(t *testing.T) {
	s := DefaultState()
	updated := DefaultProfile
	updated.Settings.FontSize = 24

	out, err := SaveProfile(s, updated)
	require.NoError(t, err)
	assert.Equal(t, 24.0, out.Active.Settings.FontSize)
	p, _ := out.Profile(DefaultProfileName)
	assert.Equal(t, 24.0, p.Settings.FontSize)
	assert.Equal(t, 18.0, s.Active.Settings.FontSize)
}

func TestRenameProfileCascades(t *testing.T) {
	s := stateWithSites()
	s, err := SetActiveProfile(s, NightProfile.Name)
	require.NoError(t, err)

	settings := NightProfile.Settings
	settings.LineHeight = 2
	out, err := RenameProfile(s, NightProfile.Name, "Night", settings)
	require.NoError(t, err)

	assert.Equal(t, "Night", out.Active.Name)
	assert.Equal(t, 2.0, out.Active.Settings.LineHeight)
	assert.Equal(t, "Night", out.SiteProfiles["news.example"])
	assert.Equal(t, DyslexiaProfile.Name, out.SiteProfiles["docs.example"])
	_, ok := out.Profile(NightProfile.Name)
	assert.False(t, ok)
	assert.Equal(t, NightProfile.Name, s.SiteProfiles["news.example"], "input state must not change")
}

func TestRenameProfileRules(t *testing.T) {
	s := DefaultState()

	_, err := RenameProfile(s, DefaultProfileName, "Main", DefaultSettings)
	assert.ErrorIs(t, err, ErrDefaultProfile)

	_, err = RenameProfile(s, NightProfile.Name, DyslexiaProfile.Name, DefaultSettings)
	assert.ErrorIs(t, err, ErrProfileExists)

	_, err = RenameProfile(s, "Ghost", "Spirit", DefaultSettings)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	edited := DefaultSettings
	edited.TextAlignment = AlignJustify
	out, err := RenameProfile(s, DefaultProfileName, DefaultProfileName, edited)
	require.NoError(t, err, "default settings stay editable")
	assert.Equal(t, AlignJustify, out.Active.Settings.TextAlignment)
}

func TestDeleteProfile(t *testing.T) {
	s := stateWithSites()

	out, err := DeleteProfile(s, NightProfile.Name)
	require.NoError(t, err)
	assert.Len(t, out.Profiles, 2)
	assert.NotContains(t, out.SiteProfiles, "news.example")
	assert.Contains(t, out.SiteProfiles, "docs.example")

	_, err = DeleteProfile(s, DefaultProfileName)
	assert.ErrorIs(t, err, ErrActiveProfile, "default is also active here")

	s2, err := SetActiveProfile(s, NightProfile.Name)
	require.NoError(t, err)
	_, err = DeleteProfile(s2, DefaultProfileName)
	assert.ErrorIs(t, err, ErrDefaultProfile)
	_, err = DeleteProfile(s2, NightProfile.Name)
	assert.ErrorIs(t, err, ErrActiveProfile)

	_, err = DeleteProfile(s, "Ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSetActiveSettings(t *testing.T) {
	s := DefaultState()
	settings := DefaultSettings
	settings.Enabled = false

	out := SetActiveSettings(s, settings)
	assert.False(t, out.Active.Settings.Enabled)
	p, _ := out.Profile(DefaultProfileName)
	assert.False(t, p.Settings.Enabled)
}

func TestExceptions(t *testing.T) {
	s := DefaultState()

	out, err := AddException(s, " a.com ")
	require.NoError(t, err)
	out, err = AddException(out, "a.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com"}, out.Exceptions)

	_, err = AddException(out, "")
	assert.ErrorIs(t, err, ErrEmptyDomain)

	out = RemoveException(out, "a.com")
	assert.Empty(t, out.Exceptions)
	out = RemoveException(out, "missing.com")
	assert.Empty(t, out.Exceptions)
}

func TestSiteProfiles(t *testing.T) {
	s := DefaultState()

	out, err := SetSiteProfile(s, "b.com", NightProfile.Name)
	require.NoError(t, err)
	assert.Equal(t, NightProfile.Name, out.SiteProfiles["b.com"])

	_, err = AddSiteProfile(out, "b.com", DyslexiaProfile.Name)
	assert.ErrorIs(t, err, ErrDomainExists)

	out, err = SetSiteProfile(out, "b.com", DyslexiaProfile.Name)
	require.NoError(t, err)
	assert.Equal(t, DyslexiaProfile.Name, out.SiteProfiles["b.com"])

	_, err = SetSiteProfile(out, "c.com", "Ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	out = RemoveSiteProfile(out, "b.com")
	assert.Empty(t, out.SiteProfiles)
}

func TestRepair(t *testing.T) {
	s := State{
		Profiles:     []Profile{NightProfile},
		Active:       Profile{Name: "Deleted"},
		SiteProfiles: map[string]string{"a.com": "Deleted", "b.com": NightProfile.Name},
	}

	out, changed := Repair(s)
	assert.True(t, changed)
	assert.Equal(t, DefaultProfileName, out.Profiles[0].Name)
	assert.Equal(t, DefaultProfile, out.Active)
	assert.Equal(t, map[string]string{"b.com": NightProfile.Name}, out.SiteProfiles)
	assert.NotNil(t, out.Exceptions)

	_, changed = Repair(DefaultState())
	assert.False(t, changed)
}

func TestRepairSyncsActiveSettings(t *testing.T) {
	s := DefaultState()
	s.Active.Settings.FontSize = 30

	out, changed := Repair(s)
	assert.True(t, changed)
	assert.Equal(t, DefaultSettings, out.Active.Settings)
}

func TestSortedDomains(t *testing.T) {
	got := SortedDomains(map[string]string{"site10.com": "x", "site2.com": "x", "alpha.com": "x"})
	assert.Equal(t, []string{"alpha.com", "site2.com", "site10.com"}, got)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings.Validate())

	bad := DefaultSettings
	bad.TextAlignment = "middle"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettings)

	bad = DefaultSettings
	bad.FontSize = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettings)

	assert.Equal(t, "Justify", AlignJustify.Label())
}
