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
	"strconv"
	"strings"
)

// NotSet is what a recognized variable shows when the gateway did not set it.
const NotSet = "(not set)"

var BadContentLengthError = errors.New("[cgi-diag] Bad CONTENT_LENGTH")

// Env is the set of variables the gateway handed to one invocation. Keys are
// kept exactly as the gateway wrote them.
type Env map[string]string

// EnvFromList builds an Env from KEY=VALUE pairs as returned by os.Environ.
// Entries without '=' are skipped.
func EnvFromList(list []string) Env {
	env := make(Env, len(list))
	for _, kv := range list {
		k, v, ok := strings.Cut(kv, "=")
		// windows keeps per-drive cwd entries like "=C:=C:\"
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

func (e Env) Lookup(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

// Get returns the value of name or NotSet. A variable set to the empty
// string is returned as is.
func (e Env) Get(name string) string {
	v, ok := e[name]
	if !ok {
		return NotSet
	}
	return v
}

func (e Env) Method() string {
	return e["REQUEST_METHOD"]
}

// ContentLength returns the declared body length. Absent or empty values
// are 0. Unparsable or negative values are 0 with BadContentLengthError.
func (e Env) ContentLength() (int64, error) {
	raw := strings.TrimSpace(e["CONTENT_LENGTH"])
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, BadContentLengthError
	}
	if n < 0 {
		return 0, BadContentLengthError
	}
	return n, nil
}
