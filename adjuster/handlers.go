package adjuster

import (
	"context"
	"errors"
	"strings"

	"github.com/hazyhaar/readstyle/message"
	"github.com/hazyhaar/readstyle/prefs"
	"github.com/hazyhaar/readstyle/resolve"
	"github.com/hazyhaar/readstyle/style"
)

// User-facing error texts.
const (
	TextActiveProfile   = "Cannot delete the active profile"
	TextDefaultProfile  = "Cannot delete the default profile"
	TextRenameDefault   = "Cannot rename the default profile"
	TextProfileNotFound = "Profile not found"
	TextProfileExists   = "A profile with this name already exists"
	TextEmptyName       = "Profile name is required"
	TextEmptyDomain     = "Domain is required"
	TextMissingSettings = "Settings are required"
	TextMissingProfile  = "Profile is required"
	TextInvalidSettings = "Invalid settings"
	TextDomainExists    = "This domain already has a specific profile"
)

func (a *Adjuster) registerHandlers() {
	r := a.router
	r.Handle(message.GetSettings, a.handleGetSettings)
	r.Handle(message.SetSettings, a.handleSetSettings)
	r.Handle(message.GetProfiles, a.handleGetProfiles)
	r.Handle(message.SetActiveProfile, a.handleSetActiveProfile)
	r.Handle(message.SaveProfile, a.handleSaveProfile)
	r.Handle(message.RenameProfile, a.handleRenameProfile)
	r.Handle(message.DeleteProfile, a.handleDeleteProfile)
	r.Handle(message.GetSiteExceptions, a.handleGetSiteExceptions)
	r.Handle(message.AddSiteException, a.handleAddSiteException)
	r.Handle(message.RemoveSiteException, a.handleRemoveSiteException)
	r.Handle(message.GetSiteProfiles, a.handleGetSiteProfiles)
	r.Handle(message.SetSiteProfile, a.handleSetSiteProfile)
	r.Handle(message.RemoveSiteProfile, a.handleRemoveSiteProfile)
	r.Handle(message.ExportSettings, a.handleExportSettings)
	r.Handle(message.ImportSettings, a.handleImportSettings)
	r.Handle(message.ResetAllSettings, a.handleResetAllSettings)
	r.Handle(message.GetPageInfo, a.handleGetPageInfo)
	r.Handle(message.ApplyStyles, a.handleApplyStyles)
	r.Handle(message.RemoveStyles, a.handleRemoveStyles)
}

// publicText maps editor errors to the texts shown in the popup and
// options page.
func publicText(err error) error {
	var pub message.PublicError
	if errors.As(err, &pub) {
		return err
	}
	var text string
	switch {
	case errors.Is(err, prefs.ErrActiveProfile):
		text = TextActiveProfile
	case errors.Is(err, prefs.ErrDefaultProfile):
		text = TextDefaultProfile
	case errors.Is(err, prefs.ErrProfileNotFound):
		text = TextProfileNotFound
	case errors.Is(err, prefs.ErrProfileExists):
		text = TextProfileExists
	case errors.Is(err, prefs.ErrEmptyName):
		text = TextEmptyName
	case errors.Is(err, prefs.ErrEmptyDomain):
		text = TextEmptyDomain
	case errors.Is(err, prefs.ErrInvalidSettings):
		text = TextInvalidSettings
	case errors.Is(err, prefs.ErrDomainExists):
		text = TextDomainExists
	default:
		return err
	}
	return message.Publicf(err, "%s", text)
}

func (a *Adjuster) edit(ctx context.Context, fn func(prefs.State) (prefs.State, error)) (message.Response, error) {
	if err := a.mutate(ctx, fn); err != nil {
		return message.Response{}, publicText(err)
	}
	return message.OK(), nil
}

func (a *Adjuster) handleGetSettings(ctx context.Context, req message.Request) (message.Response, error) {
	return message.SettingsResult(a.SettingsForURL(ctx, req.URL)), nil
}

func (a *Adjuster) handleSetSettings(ctx context.Context, req message.Request) (message.Response, error) {
	if req.Settings == nil {
		return message.Response{}, message.Publicf(errors.New("adjuster: set settings: missing settings"), TextMissingSettings)
	}
	settings := *req.Settings
	if err := settings.Validate(); err != nil {
		return message.Response{}, publicText(err)
	}
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		return prefs.SetActiveSettings(s, settings), nil
	})
}

func (a *Adjuster) handleGetProfiles(ctx context.Context, _ message.Request) (message.Response, error) {
	return message.ProfilesResult(a.prefs.Profiles(ctx)), nil
}

// profileName picks the profile a request refers to: ProfileName when set,
// else the name of Profile.
func profileName(req message.Request) string {
	if req.ProfileName != "" {
		return req.ProfileName
	}
	if req.Profile != nil {
		return req.Profile.Name
	}
	return ""
}

func (a *Adjuster) handleSetActiveProfile(ctx context.Context, req message.Request) (message.Response, error) {
	name := profileName(req)
	if name == "" {
		return message.Response{}, publicText(prefs.ErrEmptyName)
	}
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		return prefs.SetActiveProfile(s, name)
	})
}

func (a *Adjuster) handleSaveProfile(ctx context.Context, req message.Request) (message.Response, error) {
	if req.Profile == nil {
		return message.Response{}, message.Publicf(errors.New("adjuster: save profile: missing profile"), TextMissingProfile)
	}
	p := *req.Profile
	if err := p.Settings.Validate(); err != nil {
		return message.Response{}, publicText(err)
	}
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		if req.Create {
			return prefs.CreateProfile(s, p)
		}
		return prefs.SaveProfile(s, p)
	})
}

func (a *Adjuster) handleRenameProfile(ctx context.Context, req message.Request) (message.Response, error) {
	if req.ProfileName == "" {
		return message.Response{}, publicText(prefs.ErrEmptyName)
	}
	oldName, newName := req.ProfileName, req.NewName
	if newName == "" {
		newName = oldName
	}
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		current, ok := s.Profile(oldName)
		if !ok {
			return s, prefs.ErrProfileNotFound
		}
		settings := current.Settings
		if req.Settings != nil {
			if err := req.Settings.Validate(); err != nil {
				return s, err
			}
			settings = *req.Settings
		}
		next, err := prefs.RenameProfile(s, oldName, newName, settings)
		if errors.Is(err, prefs.ErrDefaultProfile) {
			return s, message.Publicf(err, TextRenameDefault)
		}
		return next, err
	})
}

func (a *Adjuster) handleDeleteProfile(ctx context.Context, req message.Request) (message.Response, error) {
	name := profileName(req)
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		return prefs.DeleteProfile(s, name)
	})
}

func (a *Adjuster) handleGetSiteExceptions(ctx context.Context, _ message.Request) (message.Response, error) {
	return message.ExceptionsResult(a.prefs.SiteExceptions(ctx)), nil
}

// requestDomain is req.Domain, or the domain of req.URL when no domain was
// given.
func requestDomain(req message.Request) string {
	if d := strings.TrimSpace(req.Domain); d != "" {
		return d
	}
	if req.URL != "" {
		return resolve.ExtractDomain(req.URL)
	}
	return ""
}

func (a *Adjuster) handleAddSiteException(ctx context.Context, req message.Request) (message.Response, error) {
	domain := requestDomain(req)
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		return prefs.AddException(s, domain)
	})
}

func (a *Adjuster) handleRemoveSiteException(ctx context.Context, req message.Request) (message.Response, error) {
	domain := requestDomain(req)
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		return prefs.RemoveException(s, domain), nil
	})
}

func (a *Adjuster) handleGetSiteProfiles(ctx context.Context, _ message.Request) (message.Response, error) {
	return message.SiteProfilesResult(a.prefs.SiteProfiles(ctx)), nil
}

func (a *Adjuster) handleSetSiteProfile(ctx context.Context, req message.Request) (message.Response, error) {
	domain, name := requestDomain(req), profileName(req)
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		if req.Create {
			return prefs.AddSiteProfile(s, domain, name)
		}
		return prefs.SetSiteProfile(s, domain, name)
	})
}

func (a *Adjuster) handleRemoveSiteProfile(ctx context.Context, req message.Request) (message.Response, error) {
	domain := requestDomain(req)
	return a.edit(ctx, func(s prefs.State) (prefs.State, error) {
		return prefs.RemoveSiteProfile(s, domain), nil
	})
}

func (a *Adjuster) handleExportSettings(ctx context.Context, _ message.Request) (message.Response, error) {
	data, err := a.prefs.Export(ctx)
	if err != nil {
		return message.Response{}, err
	}
	resp := message.OK()
	resp.SettingsJSON = string(data)
	return resp, nil
}

func (a *Adjuster) handleImportSettings(ctx context.Context, req message.Request) (message.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.prefs.Import(ctx, []byte(req.SettingsJSON)) {
		return message.Response{}, nil
	}
	if err := a.repair(ctx, "import"); err != nil {
		return message.Response{}, err
	}
	return message.OK(), nil
}

func (a *Adjuster) handleResetAllSettings(ctx context.Context, _ message.Request) (message.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.prefs.Reset(ctx); err != nil {
		return message.Response{}, err
	}
	return message.OK(), nil
}

func (a *Adjuster) handleGetPageInfo(ctx context.Context, req message.Request) (message.Response, error) {
	info, err := a.PageInfo(ctx, req.URL, req.HTML)
	if err != nil {
		return message.Response{}, err
	}
	resp := message.OK()
	resp.PageInfo = info
	return resp, nil
}

// handleApplyStyles answers with the stylesheet for the request settings, or
// for the URL when no settings were sent. With HTML, the styled document is
// returned as well.
func (a *Adjuster) handleApplyStyles(ctx context.Context, req message.Request) (message.Response, error) {
	settings := req.Settings
	if settings == nil {
		settings = a.SettingsForURL(ctx, req.URL)
	}
	css := style.GenerateCSS(settings)
	resp := message.OK()
	resp.Settings = settings
	resp.CSS = &css
	if req.HTML != "" {
		out, err := restyle(req.HTML, settings)
		if err != nil {
			return message.Response{}, err
		}
		resp.HTML = out
	}
	return resp, nil
}

func (a *Adjuster) handleRemoveStyles(_ context.Context, req message.Request) (message.Response, error) {
	css := ""
	resp := message.OK()
	resp.CSS = &css
	if req.HTML != "" {
		out, err := restyle(req.HTML, nil)
		if err != nil {
			return message.Response{}, err
		}
		resp.HTML = out
	}
	return resp, nil
}
