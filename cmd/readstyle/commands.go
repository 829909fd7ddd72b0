package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/readstyle/adjuster"
	"github.com/hazyhaar/readstyle/message"
	"github.com/hazyhaar/readstyle/netguard"
	"github.com/hazyhaar/readstyle/prefs"
	"github.com/hazyhaar/readstyle/style"
)

func newResolveCmd(root *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Print the settings decision for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return printJSON(cmd.OutOrStdout(), a.Decide(cmd.Context(), args[0]))
		},
	}
}

func newCSSCmd(root *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "css <url>",
		Short: "Print the stylesheet injected on a URL (empty when disabled or excepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = io.WriteString(cmd.OutOrStdout(), style.GenerateCSS(a.SettingsForURL(cmd.Context(), args[0])))
			return err
		},
	}
}

type analyzeArgs struct {
	URL    string
	Render bool
}

func newAnalyzeCmd(root *rootArgs) *cobra.Command {
	args := &analyzeArgs{}
	cmd := &cobra.Command{
		Use:   "analyze <file|url>",
		Short: "Report text elements and the main content element of a page",
		Long: `Analyze an HTML file, or with --render a live URL loaded in Chrome.
Files are analysed without rendering; layout is approximated from the markup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			ctx := cmd.Context()
			target := pos[0]

			if args.Render {
				cfg, err := root.config()
				if err != nil {
					return err
				}
				cfg.Browser.Enabled = true
				a, err := adjuster.New(ctx, cfg, root.logger)
				if err != nil {
					return err
				}
				defer a.Close()
				info, err := a.PageInfo(ctx, target, "")
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info)
			}

			f, err := os.Open(target)
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := netguard.ReadAll(f, netguard.MaxBody)
			if err != nil {
				return fmt.Errorf("read %s: %w", target, err)
			}

			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			info, err := a.PageInfo(ctx, args.URL, string(data))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().StringVar(&args.URL, "url", "", "page URL of the file, for the domain and excerpt links")
	cmd.Flags().BoolVar(&args.Render, "render", false, "load the URL in Chrome and analyse the rendered page")
	return cmd
}

func newExportCmd(root *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all preferences as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			data, err := a.Prefs().Export(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newImportCmd(root *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import preferences exported by readstyle or the extension (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := netguard.ReadAll(in, netguard.MaxBody)
			if err != nil {
				return err
			}

			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			resp := a.Dispatch(cmd.Context(), message.Request{Type: message.ImportSettings, SettingsJSON: string(data)})
			if !resp.Success {
				return errors.New("import failed: not a valid settings file")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "imported")
			return nil
		},
	}
}

func newResetCmd(root *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default profiles and clear site rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if resp := a.Dispatch(cmd.Context(), message.Request{Type: message.ResetAllSettings}); !resp.Success {
				return errors.New(resp.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reset")
			return nil
		},
	}
}

func newProfilesCmd(root *rootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List profiles, the active one, exceptions and site profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			st := a.Prefs().State(cmd.Context())
			w := cmd.OutOrStdout()

			for _, p := range st.Profiles {
				marker := " "
				if p.Name == st.Active.Name {
					marker = "*"
				}
				s := p.Settings
				fmt.Fprintf(w, "%s %-20s %5gpx %-18s lh %-4g ws %-4gem %-7s enabled=%t\n",
					marker, p.Name, s.FontSize, s.FontFamily, s.LineHeight, s.WordSpacing, s.TextAlignment.Label(), s.Enabled)
			}
			if len(st.Exceptions) > 0 {
				fmt.Fprintf(w, "\nexcepted: %s\n", strings.Join(st.Exceptions, ", "))
			}
			if len(st.SiteProfiles) > 0 {
				fmt.Fprintln(w, "\nsite profiles:")
				for _, d := range prefs.SortedDomains(st.SiteProfiles) {
					fmt.Fprintf(w, "  %s -> %s\n", d, st.SiteProfiles[d])
				}
			}
			return nil
		},
	}
	cmd.AddCommand(newProfileCreateCmd(root), newSiteAddCmd(root))
	return cmd
}

func newProfileCreateCmd(root *rootArgs) *cobra.Command {
	var (
		from   string
		family string
		size   float64
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Add a new profile, copying the settings of --from (default: the active profile)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			st := a.Prefs().State(cmd.Context())

			base := st.Active
			if from != "" {
				p, ok := st.Profile(from)
				if !ok {
					return fmt.Errorf("profile %q not found", from)
				}
				base = p
			}
			p := prefs.Profile{Name: args[0], Settings: base.Settings}
			if family != "" {
				p.Settings.FontFamily = family
			}
			if size != 0 {
				p.Settings.FontSize = size
			}
			resp := a.Dispatch(cmd.Context(), message.Request{Type: message.SaveProfile, Profile: &p, Create: true})
			if !resp.Success {
				return errors.New(resp.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", strings.TrimSpace(p.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "profile to copy settings from")
	cmd.Flags().StringVar(&family, "font", "", "font family")
	cmd.Flags().Float64Var(&size, "size", 0, "font size in px")
	_ = cmd.RegisterFlagCompletionFunc("font", cobra.FixedCompletions(prefs.AllFonts(), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("from", root.completeProfiles)
	return cmd
}

func newSiteAddCmd(root *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "site <domain> <profile>",
		Short: "Give a domain its own profile; a domain that already has one is refused",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			resp := a.Dispatch(cmd.Context(), message.Request{
				Type: message.SetSiteProfile, Domain: args[0], ProfileName: args[1], Create: true,
			})
			if !resp.Success {
				return errors.New(resp.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

// completeProfiles offers the stored profile names.
func (ra *rootArgs) completeProfiles(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	a, err := ra.open(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close()
	return a.Prefs().State(cmd.Context()).ProfileNames(), cobra.ShellCompDirectiveNoFileComp
}
