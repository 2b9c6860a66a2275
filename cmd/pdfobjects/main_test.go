package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ScriptRock/pdfwrap/internal/pdftest"
)

func Test_Run(t *testing.T) {
	path := pdftest.SinglePage().WriteFile(t)
	b := pdftest.SinglePage()
	b.Root = 9
	noCatalog := b.WriteFile(t)
	b = pdftest.SinglePage()
	b.Encrypt = pdftest.NewSecurity(4, "secret")
	encrypted := b.WriteFile(t)

	testCases := map[string]struct {
		args       []string
		code       int
		stdout     string
		stderr     string
		stdoutFull bool
	}{
		"catalog": {
			args: []string{path},
			stdout: "Document catalog:\n" +
				"(#1) <<\n" +
				"   /Pages  (#2) {dictionary} with 3 key(s)\n" +
				"   /Type   /Catalog   {name}\n" +
				">>\n",
			stdoutFull: true,
		},
		"depth 0": {
			args:       []string{path, "0"},
			stdout:     "Document catalog:\n(#1) {dictionary} with 2 key(s)\n",
			stdoutFull: true,
		},
		"trailer": {
			args:   []string{"-trailer", path},
			stdout: "Document trailer:\n<<\n   /Root  (#1) {dictionary} with 2 key(s)\n",
		},
		"object": {
			args:   []string{"-object", "3", path, "1"},
			stdout: "Document object 3:\n(#3) <<\n   /Contents  (#4) {stream}",
		},
		"missing object": {args: []string{"-object", "42", path}, code: 1, stderr: "Error getting PDF object 42"},
		"no args":        {code: 1, stderr: "Usage:"},
		"too many args":  {args: []string{path, "1", "2"}, code: 1, stderr: "Usage:"},
		"bad depth":      {args: []string{path, "-1"}, code: 1, stderr: "Usage:"},
		"not a number":   {args: []string{path, "deep"}, code: 1, stderr: "Usage:"},
		"unknown flag":   {args: []string{"-nope", path}, code: 1, stderr: "Usage:"},
		"cannot open":    {args: []string{filepath.Join(t.TempDir(), "missing.pdf")}, code: 1, stderr: "Error opening document"},
		"no catalog":     {args: []string{noCatalog}, code: 1, stderr: "Error getting PDF catalog"},
		"verbose":        {args: []string{"-v", path}, stderr: "opened document"},
		"password":       {args: []string{"-password", "x", path}, stdout: "Document catalog:\n"},
		"encrypted":      {args: []string{"-password", "secret", encrypted}, stdout: "Document catalog:\n(#1) <<\n"},
		"wrong password": {args: []string{"-password", "wrong", encrypted}, code: 1, stderr: "Error opening document"},
		"no password":    {args: []string{encrypted}, code: 1, stderr: "invalid password"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)
			assert.Equal(t, tc.code, code, stderr.String())
			if tc.stdoutFull {
				assert.Equal(t, tc.stdout, stdout.String())
			} else {
				assert.True(t, strings.HasPrefix(stdout.String(), tc.stdout), stdout.String())
			}
			assert.Contains(t, stderr.String(), tc.stderr)
		})
	}
}
