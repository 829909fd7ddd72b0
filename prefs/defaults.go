package prefs

// Storage keys for the four persisted collections.
const (
	KeyActiveProfile  = "activeProfile"
	KeyProfiles       = "profiles"
	KeySiteExceptions = "siteExceptions"
	KeySiteProfiles   = "siteProfiles"
)

// DefaultProfileName names the profile that always exists.
const DefaultProfileName = "Default"

// WebSafeFonts are families available on practically every system.
var WebSafeFonts = []string{
	"Arial",
	"Verdana",
	"Helvetica",
	"Tahoma",
	"Trebuchet MS",
	"Times New Roman",
	"Georgia",
	"Garamond",
	"Courier New",
	"Brush Script MT",
}

// DyslexiaFriendlyFonts are offered alongside the web-safe list.
var DyslexiaFriendlyFonts = []string{
	"OpenDyslexic",
	"Lexend",
	"Comic Sans MS",
	"Dyslexie",
	"Sylexiad",
	"Read Regular",
	"Tiresias",
}

// AllFonts returns web-safe fonts followed by dyslexia-friendly ones.
func AllFonts() []string {
	out := make([]string, 0, len(WebSafeFonts)+len(DyslexiaFriendlyFonts))
	out = append(out, WebSafeFonts...)
	return append(out, DyslexiaFriendlyFonts...)
}

// DefaultSettings seeds the Default profile.
var DefaultSettings = Settings{
	Enabled:       true,
	FontSize:      18,
	FontFamily:    "Arial",
	LineHeight:    1.5,
	WordSpacing:   0.1,
	TextAlignment: AlignLeft,
}

var (
	DefaultProfile = Profile{Name: DefaultProfileName, Settings: DefaultSettings}

	DyslexiaProfile = Profile{
		Name: "Dyslexia Assist",
		Settings: Settings{
			Enabled:       true,
			FontSize:      20,
			FontFamily:    "OpenDyslexic",
			LineHeight:    1.8,
			WordSpacing:   0.2,
			TextAlignment: AlignLeft,
		},
	}

	NightProfile = Profile{
		Name: "Night Reading",
		Settings: Settings{
			Enabled:       true,
			FontSize:      18,
			FontFamily:    "Georgia",
			LineHeight:    1.6,
			WordSpacing:   0.15,
			TextAlignment: AlignLeft,
		},
	}
)

// DefaultProfiles returns a fresh copy of the first-run profile list.
func DefaultProfiles() []Profile {
	return []Profile{DefaultProfile, DyslexiaProfile, NightProfile}
}

// DefaultState returns the state written by a reset.
func DefaultState() State {
	return State{
		Profiles:     DefaultProfiles(),
		Active:       DefaultProfile,
		Exceptions:   []string{},
		SiteProfiles: map[string]string{},
	}
}
