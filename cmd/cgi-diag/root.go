// Copyright 2026 Juca Crispim <juca@poraodojuca.net>

// This file is part of cgi-diag.

// cgi-diag is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// cgi-diag is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with cgi-diag. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	diag "github.com/jucacrispim/cgi-diag"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set via -ldflags.
	Version = "dev"
	// Commit is set via -ldflags.
	Commit = "unknown"
)

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// cli holds what the commands share. environ and progName come from the
// process in main and are replaced in tests.
type cli struct {
	progName    string
	environ     func() []string
	v           *viper.Viper
	cfgFile     string
	configPaths []string
}

func newCLI(progName string, environ func() []string) *cli {
	return &cli{
		progName:    progName,
		environ:     environ,
		v:           viper.New(),
		configPaths: defaultConfigPaths(),
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cgi-diag",
		Short: "CGI diagnostic page",
		Long: TitleStyle.Render("cgi-diag") + SubtitleStyle.Render(" - CGI diagnostic page") + `

Run without a subcommand from a web server's CGI gateway. It answers
with an HTML page listing the CGI variables of the request and, for
variants that support it, the POST body.

` + SubtitleStyle.Render("Examples:") + `
  ` + CmdStyle.Render("cgi-diag                    ") + ` Answer one CGI request (used by the gateway)
  ` + CmdStyle.Render("cgi-diag variants           ") + ` List the known page variants
  ` + CmdStyle.Render("cgi-diag serve --addr :8080 ") + ` Preview the pages over HTTP

Under a gateway (GATEWAY_INTERFACE or REQUEST_METHOD set) arguments are
ignored and the page is always rendered. Use CGI_DIAG_* variables or the
config file to configure it there.`,
		// gateways pass ISINDEX query words as arguments
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		SilenceUsage:       true,
		RunE:               c.runCGI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is cgi-diag.toml in /etc/cgi-diag, ~/.config/cgi-diag or .)")
	flags.String("variant", "", "page variant to render")
	flags.String("variants-file", "", "TOML file with extra variants")
	flags.Bool("raw", false, "do not HTML escape values and bodies")
	flags.Int64("max-body", 0, "max POST bytes to echo, 0 means CONTENT_LENGTH")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json, logfmt)")

	c.bindFlag("variant", flags.Lookup("variant"))
	c.bindFlag("variants_file", flags.Lookup("variants-file"))
	c.bindFlag("raw", flags.Lookup("raw"))
	c.bindFlag("max_body", flags.Lookup("max-body"))
	c.bindFlag("log.level", flags.Lookup("log-level"))
	c.bindFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(c.variantsCmd())
	root.AddCommand(c.serveCmd())
	return root
}

// command returns the root command set to run with args. Under a CGI
// gateway args are ISINDEX query words chosen by the client, so they are
// never dispatched: "?serve" or "?--help" must still get the page.
func (c *cli) command(args []string) *cobra.Command {
	root := c.rootCmd()
	if c.underGateway() {
		args = []string{}
	}
	root.SetArgs(args)
	return root
}

func (c *cli) underGateway() bool {
	env := diag.EnvFromList(c.environ())
	for _, name := range []string{"GATEWAY_INTERFACE", "REQUEST_METHOD"} {
		if _, ok := env.Lookup(name); ok {
			return true
		}
	}
	return false
}

// runCGI answers one request. It never fails: whatever goes wrong is
// logged to stderr and the exit status stays 0.
func (c *cli) runCGI(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := c.loadConfig()
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel, log.WarnLevel).
		With("invocation", uuid.NewString())
	if cfgErr != nil {
		logger.Warn("could not load config, using defaults", "err", cfgErr)
	}

	cat, err := c.catalogue(cfg)
	if err != nil {
		logger.Warn("could not load variants file", "err", err)
	}
	v, err := selectVariant(cat, cfg.Variant, c.progName)
	if err != nil {
		logger.Warn("falling back to default variant", "err", err)
	}
	logger.Debug("responding", "variant", v.Name)

	r := diag.New(applyConfig(v, cfg), diag.WithLogger(logger), diag.WithMaxBody(cfg.MaxBody))
	env := diag.EnvFromList(c.environ())
	if err := r.Respond(cmd.OutOrStdout(), env, cmd.InOrStdin()); err != nil {
		logger.Error("could not write response", "err", err)
	}
	return nil
}

// catalogue returns the builtins merged with the variants file, if any.
// On error the builtins alone are returned.
func (c *cli) catalogue(cfg config) (*diag.Catalogue, error) {
	cat := diag.DefaultCatalogue()
	if cfg.VariantsFile == "" {
		return cat, nil
	}
	vs, err := diag.LoadVariantsFile(cfg.VariantsFile)
	if err != nil {
		return cat, err
	}
	cat.Merge(vs...)
	return cat, nil
}

func applyConfig(v diag.Variant, cfg config) diag.Variant {
	if cfg.Raw {
		v.Raw = true
	}
	return v
}

// selectVariant picks, in order, the configured variant, the variant
// named like the program (python.cgi runs python) and the default one.
// An unknown configured name still yields the default variant, along
// with the lookup error.
func selectVariant(cat *diag.Catalogue, name, progName string) (diag.Variant, error) {
	if name != "" {
		v, err := cat.Lookup(name)
		if err == nil {
			return v, nil
		}
		// builtins are never removed from a catalogue
		dv, _ := cat.Lookup(diag.DefaultVariant)
		return dv, err
	}

	base := filepath.Base(progName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if v, err := cat.Lookup(base); err == nil {
		return v, nil
	}
	return cat.Lookup(diag.DefaultVariant)
}
