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

	"github.com/charmbracelet/log"
)

// newLogger logs to w, which is stderr outside of tests: stdout belongs
// to the CGI response.
func newLogger(w io.Writer, format, level string, fallback log.Level) *log.Logger {
	lvl := fallback
	var badLevel error
	if level != "" {
		lvl, badLevel = log.ParseLevel(level)
		if badLevel != nil {
			lvl = fallback
		}
	}

	var formatter log.Formatter
	switch format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "cgi-diag",
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
	if badLevel != nil {
		logger.Warn("bad log level", "level", level, "err", badLevel)
	}
	return logger
}
