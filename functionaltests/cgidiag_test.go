package functionaltests

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestCgiDiag(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	bin := findBinary(t)

	var tests = []struct {
		name     string
		env      []string
		args     []string
		stdin    string
		contains []string
		absent   []string
	}{
		{
			"get",
			[]string{"REQUEST_METHOD=GET", "QUERY_STRING=a=1"},
			nil,
			"",
			[]string{"<li><strong>QUERY_STRING:</strong> a=1</li>"},
			[]string{"POST Data"},
		},
		{
			"post",
			[]string{"REQUEST_METHOD=POST", "CONTENT_LENGTH=5"},
			nil,
			"helloEXTRA",
			[]string{"<pre>hello</pre>"},
			[]string{"EXTRA"},
		},
		{
			"nginx",
			[]string{"CGI_DIAG_VARIANT=nginx", "REQUEST_METHOD=GET"},
			nil,
			"",
			[]string{"<p>Request Method: GET</p>"},
			nil,
		},
		{
			"isindex words naming commands",
			[]string{"GATEWAY_INTERFACE=CGI/1.1", "REQUEST_METHOD=GET", "QUERY_STRING=serve"},
			[]string{"serve"},
			"",
			[]string{"<li><strong>QUERY_STRING:</strong> serve</li>"},
			nil,
		},
		{
			"isindex help and version flags",
			[]string{"GATEWAY_INTERFACE=CGI/1.1", "REQUEST_METHOD=GET", "QUERY_STRING=--help"},
			[]string{"--help", "--version"},
			"",
			[]string{"<li><strong>QUERY_STRING:</strong> --help</li>"},
			[]string{"Usage"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cmd := exec.Command(bin, test.args...)
			cmd.Env = append([]string{"HOME=" + t.TempDir()}, test.env...)
			cmd.Stdin = strings.NewReader(test.stdin)
			var stdout bytes.Buffer
			cmd.Stdout = &stdout
			if err := cmd.Run(); err != nil {
				t.Fatal(err)
			}

			out := stdout.String()
			if !strings.HasPrefix(out, "Content-Type: text/html\n\n") {
				t.Fatalf("bad header %s", out)
			}
			for _, s := range test.contains {
				if !strings.Contains(out, s) {
					t.Fatalf("missing %s\n%s", s, out)
				}
			}
			for _, s := range test.absent {
				if strings.Contains(out, s) {
					t.Fatalf("unexpected %s\n%s", s, out)
				}
			}
		})
	}
}

func findBinary(t *testing.T) string {
	if bin := os.Getenv("CGI_DIAG_BIN"); bin != "" {
		return bin
	}
	bin, err := exec.LookPath("cgi-diag")
	if err != nil {
		t.Skip("cgi-diag not installed")
	}
	return bin
}
