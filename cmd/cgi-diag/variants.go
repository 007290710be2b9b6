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
	"strings"

	diag "github.com/jucacrispim/cgi-diag"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func (c *cli) variantsCmd() *cobra.Command {
	var export bool
	cmd := &cobra.Command{
		Use:   "variants",
		Short: "List the page variants",
		Long: `List the page variants cgi-diag can render.

With --export the variants are printed as TOML, in the format read by
--variants-file. Exporting is a handy way to start a custom variant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cat, err := c.catalogue(cfg)
			if err != nil {
				return err
			}
			if export {
				b, err := diag.MarshalVariants(cat.Variants())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), variantsTable(cat.Variants(), cfg.Variant))
			return nil
		},
	}
	cmd.Flags().BoolVar(&export, "export", false, "print the variants as TOML")
	return cmd
}

func variantsTable(variants []diag.Variant, selected string) string {
	if selected == "" {
		selected = diag.DefaultVariant
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("NAME", "LAYOUT", "POST ECHO", "ESCAPED", "VARS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}
			return CellStyle
		})

	for _, v := range variants {
		name := v.Name
		if name == selected {
			name = SuccessStyle.Render(name + " *")
		}
		names := make([]string, 0, len(v.Vars))
		for _, vr := range v.Vars {
			names = append(names, vr.Name)
		}
		t.Row(name, string(v.Layout), yesNo(v.EchoPost), yesNo(!v.Raw), strings.Join(names, ", "))
	}
	return t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
