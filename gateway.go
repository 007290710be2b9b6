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
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

var INTERNAL_SERVER_ERROR_MSG = "Internal server error"

var UnknownSchemeError = errors.New("[cgi-diag] Unknown scheme")
var ConfusionError = errors.New("[cgi-diag] I'm confused")
var InvalidCgiResponse = errors.New("[cgi-diag] Invalid cgi response")

// Handler serves a Responder over HTTP the way a CGI gateway would run it:
// the request becomes meta-variables plus a body on stdin, and the CGI
// output is turned back into an HTTP response. Nothing is spawned.
type Handler struct {
	Responder *Responder
	// ScriptName is the URL path the variant is mounted at. Whatever
	// follows it in the request path is PATH_INFO.
	ScriptName string
	// DocRoot, when set, is used to build PATH_TRANSLATED.
	DocRoot string
	Logger  *log.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	pathInfo := strings.TrimPrefix(r.URL.Path, h.ScriptName)
	m, err := getMetaVars(r, h.ScriptName, pathInfo, h.DocRoot)
	if err != nil {
		logger.Error("bad request meta vars", "err", err)
		http.Error(w, INTERNAL_SERVER_ERROR_MSG, http.StatusInternalServerError)
		return
	}

	var rawBody []byte = nil
	if r.ContentLength != 0 && r.Body != nil {
		defer r.Body.Close()
		rawBody, err = io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		// chunked bodies have no length until they are read
		m["CONTENT_LENGTH"] = strconv.Itoa(len(rawBody))
	}

	var output bytes.Buffer
	err = h.Responder.Respond(&output, m, bytes.NewReader(rawBody))
	if err != nil {
		logger.Error("responder failed", "err", err)
		http.Error(w, INTERNAL_SERVER_ERROR_MSG, http.StatusInternalServerError)
		return
	}

	status, headers, body, err := ParseResponse(output.Bytes())
	if err != nil {
		logger.Error("bad cgi response", "err", err)
		http.Error(w, INTERNAL_SERVER_ERROR_MSG, http.StatusInternalServerError)
		return
	}

	for k, vs := range headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(status)
	w.Write(body)
}

// ParseResponse splits a CGI response into status, headers and body. The
// Status header, if any, is consumed; without it the status is 200.
func ParseResponse(response []byte) (int, http.Header, []byte, error) {
	headers, body, err := parseCgiResponse(response)
	if err != nil {
		return 0, nil, nil, err
	}
	sts := headers.Get("Status")
	if sts == "" {
		return http.StatusOK, headers, body, nil
	}
	headers.Del("Status")
	code, _, _ := strings.Cut(sts, " ")
	stsInt, err := strconv.Atoi(code)
	if err != nil || stsInt < 100 || stsInt > 999 {
		return 0, nil, nil, fmt.Errorf("%w: bad status %q", InvalidCgiResponse, sts)
	}
	return stsInt, headers, body, nil
}

func parseCgiResponse(response []byte) (http.Header, []byte, error) {
	headers := make(http.Header)
	delim := byte('\n')
	previousDelim := 0
	for i, b := range response {
		if b != delim {
			continue
		}
		line := strings.TrimSuffix(string(response[previousDelim:i]), "\r")
		if line == "" {
			return headers, response[i+1:], nil
		}
		previousDelim = i + 1
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, nil, fmt.Errorf("%w: bad header line %q", InvalidCgiResponse, line)
		}
		headers.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return nil, nil, InvalidCgiResponse
}

func getMetaVars(r *http.Request, scriptName, pathInfo, docRoot string) (Env, error) {
	headers := []string{
		"Auth-Type",
		"Remote-User",
		"Content-Type",
		"Server-Software",
	}
	meta := make(Env)

	for _, h := range headers {
		rHeader := r.Header.Get(h)
		if rHeader != "" {
			meta[strings.ReplaceAll(strings.ToUpper(h), "-", "_")] = rHeader
		}
	}

	pathTranslated := ""
	if pathInfo != "" && docRoot != "" {
		pathTranslated = filepath.Join(docRoot, filepath.FromSlash(pathInfo))
	}

	if r.ContentLength >= 0 {
		meta["CONTENT_LENGTH"] = strconv.FormatInt(r.ContentLength, 10)
	}
	meta["GATEWAY_INTERFACE"] = "CGI/1.1"
	meta["PATH_INFO"] = pathInfo
	meta["PATH_TRANSLATED"] = pathTranslated
	meta["SCRIPT_NAME"] = scriptName
	meta["QUERY_STRING"] = r.URL.RawQuery
	meta["REMOTE_ADDR"] = getIp(r)
	meta["REQUEST_METHOD"] = r.Method
	meta["SERVER_NAME"] = getDomainForRequest(r)
	port, err := getPortForRequest(r)
	if err != nil {
		return nil, err
	}
	meta["SERVER_PORT"] = strconv.Itoa(port)
	meta["SERVER_PROTOCOL"] = r.Proto

	return meta, nil
}

// splitHost splits a Host header into host and port. Bracketed IPv6
// literals keep their brackets, as SERVER_NAME wants them.
func splitHost(hostport string) (string, string, error) {
	if !strings.Contains(hostport, ":") {
		return hostport, "", nil
	}
	if strings.HasPrefix(hostport, "[") && strings.HasSuffix(hostport, "]") {
		return hostport, "", nil
	}
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", "", ConfusionError
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host, port, nil
}

func getDomainForRequest(req *http.Request) string {
	domain, _, err := splitHost(req.Host)
	if err != nil {
		domain = req.Host
	}
	domain = strings.ToLower(domain)
	return domain
}

func getPortForRequest(r *http.Request) (int, error) {
	_, port, err := splitHost(r.Host)
	if err != nil {
		return 0, err
	}
	if port != "" {
		return strconv.Atoi(port)
	}

	if r.TLS != nil {
		return 443, nil
	}
	sc := r.URL.Scheme
	switch sc {
	// server side requests usually come without a scheme
	case "http", "":
		return 80, nil

	case "https":
		return 443, nil
	}
	return 0, UnknownSchemeError
}

func getIp(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
