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
	"reflect"
	"testing"
)

func TestEnvFromList(t *testing.T) {
	env := EnvFromList([]string{
		"REQUEST_METHOD=GET",
		"QUERY_STRING=a=1&b=2",
		"CONTENT_TYPE=",
		"=C:=C:\\",
		"garbage",
	})
	expected := Env{
		"REQUEST_METHOD": "GET",
		"QUERY_STRING":   "a=1&b=2",
		"CONTENT_TYPE":   "",
	}
	if !reflect.DeepEqual(env, expected) {
		t.Fatalf("Bad env\n%+v\n%+v", env, expected)
	}
}

func TestEnv_Get(t *testing.T) {
	env := Env{"A": "1", "EMPTY": ""}
	var tests = []struct {
		name     string
		key      string
		expected string
	}{
		{"set", "A", "1"},
		{"empty", "EMPTY", ""},
		{"missing", "B", "(not set)"},
		{"case is kept", "a", "(not set)"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if v := env.Get(test.key); v != test.expected {
				t.Fatalf("Bad value %q", v)
			}
		})
	}
}

func TestEnv_ContentLength(t *testing.T) {
	var tests = []struct {
		name     string
		value    *string
		expected int64
		err      error
	}{
		{"missing", nil, 0, nil},
		{"empty", ptr(""), 0, nil},
		{"number", ptr("42"), 42, nil},
		{"spaces", ptr(" 7 "), 7, nil},
		{"zero", ptr("0"), 0, nil},
		{"negative", ptr("-1"), 0, BadContentLengthError},
		{"not a number", ptr("many"), 0, BadContentLengthError},
		{"overflow", ptr("99999999999999999999"), 0, BadContentLengthError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := Env{}
			if test.value != nil {
				env["CONTENT_LENGTH"] = *test.value
			}
			n, err := env.ContentLength()
			if !errors.Is(err, test.err) {
				t.Fatal(err)
			}
			if n != test.expected {
				t.Fatalf("Bad length %d", n)
			}
		})
	}
}

func ptr(s string) *string {
	return &s
}
