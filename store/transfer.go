package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/multierr"

	"github.com/hazyhaar/readstyle/prefs"
)

//go:embed import.schema.json
var importSchemaJSON []byte

var importSchema = mustCompileSchema("import.schema.json", importSchemaJSON)

func mustCompileSchema(name string, raw []byte) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic("store: schema " + name + ": " + err.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic("store: schema " + name + ": " + err.Error())
	}
	return c.MustCompile(name)
}

// Export serialises the whole state as indented JSON with the keys
// profiles, activeProfile, siteExceptions and siteProfiles.
func (p *Prefs) Export(ctx context.Context) ([]byte, error) {
	out, err := json.MarshalIndent(p.State(ctx), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: export: %w", err)
	}
	return out, nil
}

// ValidateImport checks data against the export document shape.
func ValidateImport(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("store: import: %w", err)
	}
	if err := importSchema.Validate(inst); err != nil {
		return fmt.Errorf("store: import: %w", err)
	}
	return nil
}

type importDoc struct {
	Profiles       []prefs.Profile   `json:"profiles"`
	ActiveProfile  *prefs.Profile    `json:"activeProfile"`
	SiteExceptions []string          `json:"siteExceptions"`
	SiteProfiles   map[string]string `json:"siteProfiles"`
}

// Import applies an exported document. Every key is optional and applied on
// its own; absent and null keys keep the stored value. It returns false when
// data is not a valid export document or any write failed. Writes that
// succeeded before a failure are kept.
func (p *Prefs) Import(ctx context.Context, data []byte) bool {
	if err := ValidateImport(data); err != nil {
		p.logger.Warn("store: import rejected", "error", err)
		return false
	}
	var doc importDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		p.logger.Warn("store: import rejected", "error", err)
		return false
	}

	var errs error
	if doc.Profiles != nil {
		errs = multierr.Append(errs, p.SetProfiles(ctx, doc.Profiles))
	}
	if doc.ActiveProfile != nil {
		errs = multierr.Append(errs, p.SetActiveProfile(ctx, *doc.ActiveProfile))
	}
	if doc.SiteExceptions != nil {
		errs = multierr.Append(errs, p.SetSiteExceptions(ctx, doc.SiteExceptions))
	}
	if doc.SiteProfiles != nil {
		errs = multierr.Append(errs, p.SetSiteProfiles(ctx, doc.SiteProfiles))
	}
	if errs != nil {
		p.logger.Error("store: import", "failures", len(multierr.Errors(errs)), "error", errs)
		return false
	}
	p.logger.Info("store: imported")
	return true
}

// Reset restores the default profiles, the Default active profile and empty
// exception and site lists.
func (p *Prefs) Reset(ctx context.Context) error {
	def := prefs.DefaultState()
	return multierr.Combine(
		p.SetProfiles(ctx, def.Profiles),
		p.SetActiveProfile(ctx, def.Active),
		p.SetSiteExceptions(ctx, def.Exceptions),
		p.SetSiteProfiles(ctx, def.SiteProfiles),
	)
}

// EnsureSeeded resets the store when no profile has been saved yet. It
// reports whether it did.
func (p *Prefs) EnsureSeeded(ctx context.Context) (bool, error) {
	raw, ok, err := p.kv.Get(ctx, prefs.KeyProfiles)
	if err != nil {
		return false, fmt.Errorf("store: seed: %w", err)
	}
	if ok {
		var existing []prefs.Profile
		if json.Unmarshal(raw, &existing) == nil && len(existing) > 0 {
			return false, nil
		}
	}
	if err := p.Reset(ctx); err != nil {
		return false, fmt.Errorf("store: seed: %w", err)
	}
	p.logger.Info("store: seeded defaults")
	return true, nil
}
