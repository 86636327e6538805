package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AwsThamer/ranger/internal/core"
)

func writeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ranges.csv")
	data := "range,c1,r1,c2,r2,c3,r3,c4,r4\n" +
		"1000,a1,b1,c1,d1,e1,f1,g1,h1\n" +
		"2000,a2,b2,c2,d2,e2,f2,g2,h2\n" +
		"1000,x,x,x,x,x,x,x,x\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestKeys(t *testing.T) {
	path := writeTable(t)

	code, out, _ := runCLI("-f", path, "--format", "csv", "--skip-header", "keys")
	require.Equal(t, 0, code)
	assert.Equal(t, "1000\n2000\n1000\n", out)
}

func TestShow(t *testing.T) {
	path := writeTable(t)

	t.Run("table", func(t *testing.T) {
		code, out, _ := runCLI("-f", path, "--skip-header", "show", "2000")
		require.Equal(t, 0, code)
		assert.Contains(t, out, "2000")
		assert.Contains(t, out, "a2")
		assert.Contains(t, out, core.Labels[0].Caption)
	})

	t.Run("json first match wins", func(t *testing.T) {
		code, out, _ := runCLI("-f", path, "--skip-header", "show", "--json", "1000")
		require.Equal(t, 0, code)

		var sel core.Selection
		require.NoError(t, json.Unmarshal([]byte(out), &sel))
		assert.True(t, sel.Matched)
		assert.Equal(t, "a1", sel.Fields[0].Value)
	})

	t.Run("miss", func(t *testing.T) {
		code, _, errOut := runCLI("-f", path, "show", "9999")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "range not found")
	})

	t.Run("key required", func(t *testing.T) {
		code, _, _ := runCLI("-f", path, "show")
		assert.Equal(t, 2, code)
	})
}

func TestStats(t *testing.T) {
	path := writeTable(t)

	code, out, _ := runCLI("-f", path, "--skip-header", "stats")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "rows")
	assert.Contains(t, out, "[1000]")
}

func TestMissingFile(t *testing.T) {
	code, _, errOut := runCLI("-f", filepath.Join(t.TempDir(), "nope.xlsx"), "keys")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "LOAD002")
}

func TestUsageErrors(t *testing.T) {
	code, _, _ := runCLI("--format", "tsv", "keys")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI()
	assert.Equal(t, 2, code)

	code, out, _ := runCLI("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "keys")
}
