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

package diag

import (
	"errors"
	"fmt"
)

type Layout string

const (
	LayoutBoxed Layout = "boxed"
	LayoutList  Layout = "list"
	LayoutPlain Layout = "plain"
)

const DefaultVariant = "webserv"

var UnknownVariantError = errors.New("[cgi-diag] Unknown variant")
var InvalidVariantError = errors.New("[cgi-diag] Invalid variant")
var DuplicateVariantError = errors.New("[cgi-diag] Duplicate variant")

// Var is one recognized variable. Label is what the page shows and
// defaults to Name.
type Var struct {
	Name  string `toml:"name"`
	Label string `toml:"label,omitempty"`
}

func (v Var) label() string {
	if v.Label == "" {
		return v.Name
	}
	return v.Label
}

// Variant describes one flavour of the diagnostic page: which variables
// it lists, in what order, how the page looks and whether a POST body is
// echoed back. Values are HTML escaped unless Raw is set.
type Variant struct {
	Name     string `toml:"name"`
	Title    string `toml:"title,omitempty"`
	Heading  string `toml:"heading,omitempty"`
	Layout   Layout `toml:"layout"`
	Vars     []Var  `toml:"vars"`
	EchoPost bool   `toml:"echo_post"`
	Raw      bool   `toml:"raw"`
}

func (v Variant) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: missing name", InvalidVariantError)
	}
	switch v.Layout {
	case LayoutBoxed, LayoutList, LayoutPlain:
	default:
		return fmt.Errorf("%w: %s: unknown layout %q", InvalidVariantError, v.Name, v.Layout)
	}
	if len(v.Vars) == 0 {
		return fmt.Errorf("%w: %s: no vars", InvalidVariantError, v.Name)
	}
	for i, vr := range v.Vars {
		if vr.Name == "" {
			return fmt.Errorf("%w: %s: var %d has no name", InvalidVariantError, v.Name, i)
		}
	}
	return nil
}

func vars(names ...string) []Var {
	vs := make([]Var, 0, len(names))
	for _, n := range names {
		vs = append(vs, Var{Name: n})
	}
	return vs
}

// Builtins returns the three pages cgi-diag knows out of the box.
func Builtins() []Variant {
	return []Variant{
		{
			Name:    "python",
			Title:   "CGI Test",
			Heading: "🐍 CGI Test - Python",
			Layout:  LayoutBoxed,
			Vars: vars(
				"REQUEST_METHOD",
				"QUERY_STRING",
				"CONTENT_TYPE",
				"CONTENT_LENGTH",
				"SERVER_NAME",
				"SERVER_PORT",
				"SCRIPT_NAME",
				"PATH_INFO",
			),
		},
		{
			Name:    "webserv",
			Title:   "Python CGI Test",
			Heading: "Python CGI Test",
			Layout:  LayoutList,
			Vars: vars(
				"REQUEST_METHOD",
				"SCRIPT_FILENAME",
				"QUERY_STRING",
				"CONTENT_LENGTH",
				"CONTENT_TYPE",
				"SERVER_PROTOCOL",
				"SERVER_NAME",
				"PATH_INFO",
				"SCRIPT_NAME",
			),
			EchoPost: true,
		},
		{
			Name:    "nginx",
			Title:   "CGI Test",
			Heading: "CGI Test",
			Layout:  LayoutPlain,
			Vars: []Var{
				{Name: "QUERY_STRING", Label: "Query String"},
				{Name: "REQUEST_METHOD", Label: "Request Method"},
			},
		},
	}
}

// Catalogue is an ordered set of variants keyed by name.
type Catalogue struct {
	variants map[string]Variant
	order    []string
}

func NewCatalogue(variants ...Variant) *Catalogue {
	c := &Catalogue{variants: make(map[string]Variant)}
	c.Merge(variants...)
	return c
}

// DefaultCatalogue holds the builtins.
func DefaultCatalogue() *Catalogue {
	return NewCatalogue(Builtins()...)
}

// Merge adds variants to the catalogue. A variant named like an existing
// one replaces it in place.
func (c *Catalogue) Merge(variants ...Variant) {
	for _, v := range variants {
		if _, exists := c.variants[v.Name]; !exists {
			c.order = append(c.order, v.Name)
		}
		c.variants[v.Name] = v
	}
}

func (c *Catalogue) Lookup(name string) (Variant, error) {
	v, ok := c.variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", UnknownVariantError, name)
	}
	return v, nil
}

func (c *Catalogue) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

func (c *Catalogue) Variants() []Variant {
	vs := make([]Variant, 0, len(c.order))
	for _, n := range c.order {
		vs = append(vs, c.variants[n])
	}
	return vs
}
