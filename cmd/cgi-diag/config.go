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
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CGI_DIAG"

type config struct {
	Variant      string
	VariantsFile string
	Raw          bool
	MaxBody      int64
	LogLevel     string
	LogFormat    string
	Addr         string
	DocRoot      string
}

func defaultConfigPaths() []string {
	paths := []string{"/etc/cgi-diag"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "cgi-diag"))
	}
	return append(paths, ".")
}

func (c *cli) bindFlag(key string, f *pflag.Flag) {
	if err := c.v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// loadConfig merges defaults, the config file, CGI_DIAG_* env vars and
// flags. The returned config is usable even when err is not nil.
func (c *cli) loadConfig() (config, error) {
	v := c.v
	v.SetDefault("variant", "")
	v.SetDefault("variants_file", "")
	v.SetDefault("raw", false)
	v.SetDefault("max_body", 0)
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.doc_root", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var err error
	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
		err = v.ReadInConfig()
	} else {
		v.SetConfigName("cgi-diag")
		for _, p := range c.configPaths {
			v.AddConfigPath(p)
		}
		err = v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			err = nil
		}
	}

	cfg := config{
		Variant:      v.GetString("variant"),
		VariantsFile: v.GetString("variants_file"),
		Raw:          v.GetBool("raw"),
		MaxBody:      v.GetInt64("max_body"),
		LogLevel:     v.GetString("log.level"),
		LogFormat:    v.GetString("log.format"),
		Addr:         v.GetString("serve.addr"),
		DocRoot:      v.GetString("serve.doc_root"),
	}
	return cfg, err
}
