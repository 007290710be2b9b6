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

// Package diag renders the CGI diagnostic page: a text/html response that
// lists a fixed set of CGI variables and optionally echoes a POST body.
package diag

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"io"
	"text/template"

	"github.com/charmbracelet/log"
)

// ContentTypeHeader ends the CGI header section.
const ContentTypeHeader = "Content-Type: text/html\n\n"

//go:embed templates/*.tmpl
var templateFS embed.FS

var pages = template.Must(template.New("pages").ParseFS(templateFS, "templates/*.tmpl"))

type field struct {
	Label string
	Value string
}

type page struct {
	Title   string
	Heading string
	Fields  []field
	Echo    bool
	Body    string
}

// Responder writes the diagnostic page of one variant. It holds no
// per-invocation state and can be shared.
type Responder struct {
	variant Variant
	maxBody int64
	logger  *log.Logger
}

type Option func(*Responder)

func WithLogger(l *log.Logger) Option {
	return func(r *Responder) {
		r.logger = l
	}
}

// WithMaxBody caps how many bytes of a POST body are read, whatever
// CONTENT_LENGTH says. Zero means no cap.
func WithMaxBody(n int64) Option {
	return func(r *Responder) {
		r.maxBody = n
	}
}

func New(v Variant, opts ...Option) *Responder {
	r := &Responder{variant: v}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Respond writes the CGI response for env to out. The body is only read
// from in for a POST with a positive CONTENT_LENGTH on a variant that
// echoes, and never past the declared length. The returned error comes
// from writing to out.
func (r *Responder) Respond(out io.Writer, env Env, in io.Reader) error {
	p := page{
		Title:   html.EscapeString(r.variant.Title),
		Heading: html.EscapeString(r.variant.Heading),
		Fields:  make([]field, 0, len(r.variant.Vars)),
	}
	for _, v := range r.variant.Vars {
		p.Fields = append(p.Fields, field{
			Label: html.EscapeString(v.label()),
			Value: r.escape(env.Get(v.Name)),
		})
	}

	if r.variant.EchoPost && env.Method() == "POST" {
		n, err := env.ContentLength()
		if err != nil {
			r.logger.Debug("ignoring content length", "value", env["CONTENT_LENGTH"], "err", err)
		}
		if n > 0 {
			p.Echo = true
			p.Body = r.escape(string(r.readBody(in, n)))
		}
	}

	var buf bytes.Buffer
	buf.WriteString(ContentTypeHeader)
	if err := pages.ExecuteTemplate(&buf, string(r.variant.Layout), p); err != nil {
		return fmt.Errorf("%w: %s: %w", InvalidVariantError, r.variant.Name, err)
	}
	_, err := out.Write(buf.Bytes())
	return err
}

func (r *Responder) escape(s string) string {
	if r.variant.Raw {
		return s
	}
	return html.EscapeString(s)
}

func (r *Responder) readBody(in io.Reader, declared int64) []byte {
	if in == nil {
		r.logger.Warn("no request body", "declared", declared)
		return nil
	}
	limit := declared
	if r.maxBody > 0 && limit > r.maxBody {
		r.logger.Warn("request body truncated", "declared", declared, "max", r.maxBody)
		limit = r.maxBody
	}

	b, err := io.ReadAll(io.LimitReader(in, limit))
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Warn("could not read request body", "err", err)
	}
	if int64(len(b)) < limit {
		r.logger.Warn("short request body", "declared", declared, "read", len(b))
	}
	return b
}
