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
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	diag "github.com/jucacrispim/cgi-diag"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

const scriptPrefix = "/cgi-bin/"

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>cgi-diag</title></head>
<body>
<h1>cgi-diag</h1>
<ul>
{{- range .}}
<li><a href="/cgi-bin/{{.}}">{{.}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the diagnostic pages over HTTP",
		Long: `Serve every variant at /cgi-bin/<variant>, building the CGI variables
from each request the way a gateway would. Anything after the variant
name in the path is PATH_INFO.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
	cmd.Flags().String("addr", ":8080", "address to listen on")
	cmd.Flags().String("doc-root", "", "directory used to build PATH_TRANSLATED")
	c.bindFlag("serve.addr", cmd.Flags().Lookup("addr"))
	c.bindFlag("serve.doc_root", cmd.Flags().Lookup("doc-root"))
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel, log.InfoLevel)
	cat, err := c.catalogue(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cat, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("listening", "addr", cfg.Addr, "variants", cat.Names())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func newRouter(cat *diag.Catalogue, cfg config, logger *log.Logger) http.Handler {
	handlers := make(map[string]*diag.Handler)
	for _, v := range cat.Variants() {
		handlers[v.Name] = &diag.Handler{
			Responder: diag.New(
				applyConfig(v, cfg),
				diag.WithLogger(logger.With("variant", v.Name)),
				diag.WithMaxBody(cfg.MaxBody),
			),
			ScriptName: scriptPrefix + v.Name,
			DocRoot:    cfg.DocRoot,
			Logger:     logger,
		}
	}

	r := mux.NewRouter()
	r.Use(requestLogger(logger))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok\n")
	}).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, cat.Names()); err != nil {
			logger.Error("could not render index", "err", err)
		}
	}).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix(scriptPrefix + "{variant}").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h, ok := handlers[mux.Vars(req)["variant"]]
		if !ok {
			http.NotFound(w, req)
			return
		}
		h.ServeHTTP(w, req)
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-Id", id)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"took", time.Since(start),
			)
		})
	}
}
