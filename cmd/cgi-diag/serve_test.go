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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	diag "github.com/jucacrispim/cgi-diag"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestRouter(t *testing.T) {
	type validateFn func(w *httptest.ResponseRecorder)
	var testCases = []struct {
		name     string
		r        *http.Request
		validate validateFn
	}{
		{
			"index",
			httptest.NewRequest("GET", "/", nil),
			func(w *httptest.ResponseRecorder) {
				if w.Code != http.StatusOK {
					t.Fatalf("Invalid status code %d", w.Code)
				}
				b := w.Body.String()
				for _, n := range []string{"python", "webserv", "nginx"} {
					if !strings.Contains(b, `<a href="/cgi-bin/`+n+`">`) {
						t.Fatalf("Missing %s\n%s", n, b)
					}
				}
			},
		},
		{
			"health",
			httptest.NewRequest("GET", "/healthz", nil),
			func(w *httptest.ResponseRecorder) {
				if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
					t.Fatalf("Invalid response %d %s", w.Code, w.Body.String())
				}
			},
		},
		{
			"variant",
			httptest.NewRequest("GET", "/cgi-bin/python?x=1", nil),
			func(w *httptest.ResponseRecorder) {
				if w.Code != http.StatusOK {
					t.Fatalf("Invalid status code %d", w.Code)
				}
				if _, err := uuid.Parse(w.Header().Get("X-Request-Id")); err != nil {
					t.Fatal(err)
				}
				b := w.Body.String()
				for _, s := range []string{
					"<p><code>QUERY_STRING</code>: x=1</p>",
					"<p><code>SERVER_NAME</code>: example.com</p>",
					"<p><code>SERVER_PORT</code>: 80</p>",
					"<p><code>SCRIPT_NAME</code>: /cgi-bin/python</p>",
					"<p><code>PATH_INFO</code>: </p>",
					"<p><code>CONTENT_TYPE</code>: (not set)</p>",
				} {
					if !strings.Contains(b, s) {
						t.Fatalf("Missing %s\n%s", s, b)
					}
				}
			},
		},
		{
			"path info",
			httptest.NewRequest("GET", "/cgi-bin/webserv/some/where", nil),
			func(w *httptest.ResponseRecorder) {
				b := w.Body.String()
				if !strings.Contains(b, "<li><strong>PATH_INFO:</strong> /some/where</li>") {
					t.Fatalf("Invalid body %s", b)
				}
			},
		},
		{
			"post",
			func() *http.Request {
				r := httptest.NewRequest("POST", "/cgi-bin/webserv", strings.NewReader("a=1&b=2"))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			}(),
			func(w *httptest.ResponseRecorder) {
				b := w.Body.String()
				for _, s := range []string{
					"<li><strong>CONTENT_TYPE:</strong> application/x-www-form-urlencoded</li>",
					"<li><strong>CONTENT_LENGTH:</strong> 7</li>",
					"<pre>a=1&amp;b=2</pre>",
				} {
					if !strings.Contains(b, s) {
						t.Fatalf("Missing %s\n%s", s, b)
					}
				}
			},
		},
		{
			"unknown variant",
			httptest.NewRequest("GET", "/cgi-bin/perl", nil),
			func(w *httptest.ResponseRecorder) {
				if w.Code != http.StatusNotFound {
					t.Fatalf("Invalid status code %d", w.Code)
				}
			},
		},
	}

	router := newRouter(diag.DefaultCatalogue(), config{}, log.New(io.Discard))
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, test.r)
			test.validate(w)
		})
	}
}

func TestRouter_Raw(t *testing.T) {
	router := newRouter(diag.DefaultCatalogue(), config{Raw: true}, log.New(io.Discard))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/cgi-bin/nginx?<i>", nil))
	if !strings.Contains(w.Body.String(), "<p>Query String: <i></p>") {
		t.Fatalf("Invalid body %s", w.Body.String())
	}
}
