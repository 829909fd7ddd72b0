package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/readstyle/prefs"
)

var night = prefs.Profile{
	Name: "Night",
	Settings: prefs.Settings{
		Enabled: true, FontSize: 18, FontFamily: "Georgia",
		LineHeight: 1.6, WordSpacing: 0.15, TextAlignment: prefs.AlignLeft,
	},
}

func scenario() Snapshot {
	return Snapshot{
		Exceptions:   []string{"a.com"},
		SiteProfiles: map[string]string{"b.com": "Night", "d.com": "Ghost"},
		Profiles:     []prefs.Profile{prefs.DefaultProfile, night},
		Active:       prefs.DefaultProfile,
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://a.com/x", "a.com"},
		{"https://B.com:8443/path?q=1", "b.com"},
		{"http://user:pw@sub.example.org/", "sub.example.org"},
		{"https://münchen.de/", "xn--mnchen-3ya.de"},
		{"not a url", ""},
		{"", ""},
		{"   ", ""},
		{"a.com", ""},
		{"about:blank", ""},
		{"file:///tmp/page.html", ""},
		{"http://%zz", ""},
		{`https://a.com\x`, "a.com"},
		{`HTTPS:\\a.com\x`, "a.com"},
		{"https:a.com/x", "a.com"},
		{"https:///a.com/", "a.com"},
		{"https://a.com:65535/", "a.com"},
		{"https://a.com:99999/", ""},
		{"https://a.c\tom/", "a.com"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDomain(tt.url))
		})
	}
}

func TestResolveScenario(t *testing.T) {
	s := scenario()

	assert.Nil(t, s.Resolve("https://a.com/x"))
	assert.Equal(t, &night.Settings, s.Resolve("https://b.com/y"))
	assert.Equal(t, &prefs.DefaultSettings, s.Resolve("https://c.com"))
}

func TestResolveStaleMapping(t *testing.T) {
	s := scenario()

	d := s.Decide("https://d.com")
	assert.Equal(t, TierActive, d.Tier)
	assert.True(t, d.Stale)
	assert.Equal(t, &prefs.DefaultSettings, d.Settings)
}

func TestExceptionDominatesSiteProfile(t *testing.T) {
	s := scenario()
	s.SiteProfiles["a.com"] = "Night"

	d := s.Decide("https://a.com/")
	assert.Equal(t, TierException, d.Tier)
	assert.Nil(t, d.Settings)
}

func TestEmptyDomainNeverMatches(t *testing.T) {
	s := scenario()
	s.Exceptions = append(s.Exceptions, "")
	s.SiteProfiles[""] = "Night"

	for _, u := range []string{"", "not a url", "about:blank"} {
		d := s.Decide(u)
		assert.Equal(t, TierActive, d.Tier, u)
		assert.Equal(t, &prefs.DefaultSettings, d.Settings, u)
	}
}

func TestMalformedURLFallsThroughLikeUnknownDomain(t *testing.T) {
	s := scenario()
	assert.Equal(t, s.Resolve("https://unknown.example"), s.Resolve("not a url"))
}

func TestResolveProperties(t *testing.T) {
	s := scenario()
	s.Exceptions = []string{"x.com", "y.com", "b.com"}

	for _, d := range s.Exceptions {
		assert.Nil(t, s.Resolve("https://"+d+"/page"), d)
	}

	s = scenario()
	for domain, name := range s.SiteProfiles {
		p, ok := prefs.FindProfile(s.Profiles, name)
		if !ok {
			continue
		}
		assert.Equal(t, &p.Settings, s.Resolve("https://"+domain), domain)
	}

	s.Active = night
	assert.Equal(t, &night.Settings, s.Resolve("https://elsewhere.net"))
}

func TestResolveIdempotentAndCopies(t *testing.T) {
	s := scenario()

	first := s.Resolve("https://b.com/y")
	second := s.Resolve("https://b.com/y")
	require.NotNil(t, first)
	assert.Equal(t, first, second)

	first.FontSize = 99
	assert.Equal(t, 18.0, s.Profiles[1].Settings.FontSize, "result must not alias stored profile")
	assert.Equal(t, 18.0, s.Resolve("https://b.com/y").FontSize)
}

func TestResolveFunctionForm(t *testing.T) {
	s := scenario()
	got := Resolve("https://b.com", s.Exceptions, s.SiteProfiles, s.Profiles, s.Active)
	assert.Equal(t, &night.Settings, got)

	assert.Equal(t, &prefs.DefaultSettings,
		Resolve("https://b.com", nil, nil, nil, prefs.DefaultProfile))
}

func TestSnapshotOf(t *testing.T) {
	st := prefs.DefaultState()
	st.Exceptions = []string{"a.com"}
	assert.Nil(t, SnapshotOf(st).Resolve("https://a.com"))
}
