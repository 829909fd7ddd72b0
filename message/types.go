// Package message defines the request/response envelopes exchanged between
// readstyle surfaces (popup, options page, content pages, CLI, HTTP) and the
// dispatch table that routes them by type.
package message

import (
	"encoding/json"

	"github.com/hazyhaar/readstyle/contentscan"
	"github.com/hazyhaar/readstyle/prefs"
)

// Type names a message kind. Values match the wire strings.
type Type string

const (
	GetSettings         Type = "GET_SETTINGS"
	SetSettings         Type = "SET_SETTINGS"
	GetProfiles         Type = "GET_PROFILES"
	SetActiveProfile    Type = "SET_ACTIVE_PROFILE"
	SaveProfile         Type = "SAVE_PROFILE"
	RenameProfile       Type = "RENAME_PROFILE"
	DeleteProfile       Type = "DELETE_PROFILE"
	GetSiteExceptions   Type = "GET_SITE_EXCEPTIONS"
	AddSiteException    Type = "ADD_SITE_EXCEPTION"
	RemoveSiteException Type = "REMOVE_SITE_EXCEPTION"
	GetSiteProfiles     Type = "GET_SITE_PROFILES"
	SetSiteProfile      Type = "SET_SITE_PROFILE"
	RemoveSiteProfile   Type = "REMOVE_SITE_PROFILE"
	ExportSettings      Type = "EXPORT_SETTINGS"
	ImportSettings      Type = "IMPORT_SETTINGS"
	ResetAllSettings    Type = "RESET_ALL_SETTINGS"
	GetPageInfo         Type = "GET_PAGE_INFO"
	ApplyStyles         Type = "APPLY_STYLES"
	RemoveStyles        Type = "REMOVE_STYLES"
)

// Types lists every message type in declaration order.
var Types = []Type{
	GetSettings, SetSettings, GetProfiles, SetActiveProfile, SaveProfile,
	RenameProfile, DeleteProfile, GetSiteExceptions, AddSiteException,
	RemoveSiteException, GetSiteProfiles, SetSiteProfile, RemoveSiteProfile,
	ExportSettings, ImportSettings, ResetAllSettings, GetPageInfo,
	ApplyStyles, RemoveStyles,
}

// Request is the envelope for every message. Only the fields the type uses
// are set. Create turns SAVE_PROFILE into "add a new profile" and
// SET_SITE_PROFILE into "add a new site entry": both then refuse to replace
// an existing one.
type Request struct {
	Type         Type            `json:"type"`
	URL          string          `json:"url,omitempty"`
	Settings     *prefs.Settings `json:"settings,omitempty"`
	Profile      *prefs.Profile  `json:"profile,omitempty"`
	ProfileName  string          `json:"profileName,omitempty"`
	NewName      string          `json:"newName,omitempty"`
	Domain       string          `json:"domain,omitempty"`
	SettingsJSON string          `json:"settingsJson,omitempty"`
	HTML         string          `json:"html,omitempty"`
	Create       bool            `json:"create,omitempty"`
}

// Response is the envelope returned for every message.
type Response struct {
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	Settings     *prefs.Settings   `json:"settings,omitempty"`
	Profiles     []prefs.Profile   `json:"profiles,omitempty"`
	Exceptions   []string          `json:"exceptions,omitempty"`
	SiteProfiles map[string]string `json:"siteProfiles,omitempty"`
	SettingsJSON string            `json:"settingsJson,omitempty"`
	PageInfo     *PageInfo         `json:"pageInfo,omitempty"`
	CSS          *string           `json:"css,omitempty"`
	HTML         string            `json:"html,omitempty"`

	// payload marks fields that are the answer to a GET_* message. They are
	// always encoded, as null or empty, even when unset.
	payload payloadSet
}

type payloadSet uint8

const (
	withSettings payloadSet = 1 << iota
	withProfiles
	withExceptions
	withSiteProfiles
)

// SettingsResult answers GET_SETTINGS. A nil s is encoded as
// "settings": null.
func SettingsResult(s *prefs.Settings) Response {
	return Response{Success: true, Settings: s, payload: withSettings}
}

// ProfilesResult answers GET_PROFILES.
func ProfilesResult(p []prefs.Profile) Response {
	return Response{Success: true, Profiles: p, payload: withProfiles}
}

// ExceptionsResult answers GET_SITE_EXCEPTIONS.
func ExceptionsResult(e []string) Response {
	return Response{Success: true, Exceptions: e, payload: withExceptions}
}

// SiteProfilesResult answers GET_SITE_PROFILES.
func SiteProfilesResult(m map[string]string) Response {
	return Response{Success: true, SiteProfiles: m, payload: withSiteProfiles}
}

// MarshalJSON encodes r, keeping the payload fields of GET_* answers even
// when they are empty.
func (r Response) MarshalJSON() ([]byte, error) {
	type wire Response
	data, err := json.Marshal(wire(r))
	if err != nil || r.payload == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if r.payload&withSettings != 0 && r.Settings == nil {
		fields["settings"] = json.RawMessage("null")
	}
	if r.payload&withProfiles != 0 && len(r.Profiles) == 0 {
		fields["profiles"] = json.RawMessage("[]")
	}
	if r.payload&withExceptions != 0 && len(r.Exceptions) == 0 {
		fields["exceptions"] = json.RawMessage("[]")
	}
	if r.payload&withSiteProfiles != 0 && len(r.SiteProfiles) == 0 {
		fields["siteProfiles"] = json.RawMessage("{}")
	}
	return json.Marshal(fields)
}

// PageInfo answers GET_PAGE_INFO.
type PageInfo struct {
	URL         string               `json:"url"`
	Domain      string               `json:"domain"`
	Title       string               `json:"title"`
	DOMAnalysis contentscan.Analysis `json:"domAnalysis"`
}

// OK is the plain success response.
func OK() Response { return Response{Success: true} }

// Fail is the error response carrying msg.
func Fail(msg string) Response { return Response{Error: msg} }
