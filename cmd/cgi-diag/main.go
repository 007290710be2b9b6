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
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	c := newCLI(os.Args[0], os.Environ)
	if err := fang.Execute(
		context.Background(),
		c.command(os.Args[1:]),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
