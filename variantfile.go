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
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type variantFile struct {
	Variant []Variant `toml:"variant"`
}

// LoadVariants decodes [[variant]] tables. Every variant is validated and
// names must be unique within the file.
func LoadVariants(r io.Reader) ([]Variant, error) {
	var f variantFile
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	if err := d.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", InvalidVariantError, err)
	}

	seen := make(map[string]bool, len(f.Variant))
	for _, v := range f.Variant {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("%w: %q", DuplicateVariantError, v.Name)
		}
		seen[v.Name] = true
	}
	return f.Variant, nil
}

func LoadVariantsFile(path string) ([]Variant, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	vs, err := LoadVariants(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vs, nil
}

// MarshalVariants writes variants in the format LoadVariants reads.
func MarshalVariants(variants []Variant) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(variantFile{Variant: variants}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
