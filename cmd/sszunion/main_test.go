package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockworklabs/sszunion/pkg/union"
)

const messagesDefs = "../../examples/messages/messages.yaml"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SSZUNION_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func copyDefs(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(messagesDefs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestGenDefaultOutput(t *testing.T) {
	defs := copyDefs(t)
	_, err := runCLI(t, "gen", "-d", defs)
	require.NoError(t, err)

	src, err := os.ReadFile(strings.TrimSuffix(defs, ".yaml") + "_union.go")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by sszunion gen from messages.yaml. DO NOT EDIT."))
	assert.Contains(t, string(src), "func DecodeTestUnion(buf []byte) (TestUnion, error)")
}

func TestGenStdoutWithHeader(t *testing.T) {
	out, err := runCLI(t, "gen", "-d", messagesDefs, "-o", "-", "--header", "Copyright the authors.")
	require.NoError(t, err)
	assert.Contains(t, out, "// Copyright the authors.\n")
	assert.Contains(t, out, "TestUnionMessageBSelector")
}

func TestGenConfigHeaderAndSuffix(t *testing.T) {
	defs := copyDefs(t)
	cfgPath := filepath.Join(t.TempDir(), "sszunion.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("gen:\n  header: from config\n  suffix: _sum.go\n"), 0o644))

	_, err := runCLI(t, "--config", cfgPath, "gen", defs)
	require.NoError(t, err)

	src, err := os.ReadFile(strings.TrimSuffix(defs, ".yaml") + "_sum.go")
	require.NoError(t, err)
	assert.Contains(t, string(src), "// from config\n")
}

func TestGenMissingDefs(t *testing.T) {
	_, err := runCLI(t, "gen")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "gen", "-d", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	out, err := runCLI(t, "decode", "-d", messagesDefs, "TestUnion", "002a000000")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TestUnion","selector":0,"variant":"MessageA","size":5,"payload":42}`, out)

	out, err = runCLI(t, "decode", "-d", messagesDefs, "TestUnion", "0x01", "01 02 03 04")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TestUnion","selector":1,"variant":"MessageB","size":5,"payload":"AQIDBA=="}`, out)
}

func TestDecodeErrors(t *testing.T) {
	_, err := runCLI(t, "decode", "-d", messagesDefs, "TestUnion", "0200")
	assert.ErrorIs(t, err, union.ErrUnknownSelector)

	_, err = runCLI(t, "decode", "-d", messagesDefs, "TestUnion", "002a")
	assert.ErrorIs(t, err, union.ErrTruncatedInput)

	_, err = runCLI(t, "decode", "Missing", "00")
	assert.ErrorIs(t, err, union.ErrUnknownKind)

	_, err = runCLI(t, "decode", "TestUnion", "zz")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "decode", "TestUnion")
	assert.ErrorIs(t, err, errUsage)
}

func TestDecodeBuiltinFrame(t *testing.T) {
	out, err := runCLI(t, "decode", "Frame", "00cafe")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Frame","selector":0,"variant":"Uncompressed","size":3,"payload":"yv4="}`, out)
}

func TestEncode(t *testing.T) {
	out, err := runCLI(t, "encode", "-d", messagesDefs, "-k", "TestUnion", "-v", "MessageA", "42")
	require.NoError(t, err)
	assert.Equal(t, "002a000000\n", out)

	out, err = runCLI(t, "encode", "-d", messagesDefs, "-k", "TestUnion", "-v", "MessageB", "0x01020304")
	require.NoError(t, err)
	assert.Equal(t, "0101020304\n", out)
}

func TestEncodeErrors(t *testing.T) {
	_, err := runCLI(t, "encode", "-d", messagesDefs, "-k", "TestUnion", "-v", "MessageC", "1")
	assert.ErrorIs(t, err, union.ErrUnregisteredVariant)

	_, err = runCLI(t, "encode", "-d", messagesDefs, "-k", "Nope", "-v", "MessageA", "1")
	assert.ErrorIs(t, err, union.ErrUnknownKind)

	_, err = runCLI(t, "encode", "-d", messagesDefs, "-k", "TestUnion", "-v", "MessageA", "4294967296")
	assert.Error(t, err)

	_, err = runCLI(t, "encode", "-k", "TestUnion")
	assert.ErrorIs(t, err, errUsage)
}

func TestEncodeSealDecodeOpen(t *testing.T) {
	for _, alg := range []string{"none", "brotli", "gzip", "zstd", "lz4"} {
		t.Run(alg, func(t *testing.T) {
			sealed, err := runCLI(t, "encode", "-d", messagesDefs, "-k", "TestUnion", "-v", "MessageB", "--seal", alg, "deadbeef")
			require.NoError(t, err)

			out, err := runCLI(t, "decode", "-d", messagesDefs, "--open", "TestUnion", strings.TrimSpace(sealed))
			require.NoError(t, err)
			assert.JSONEq(t, `{"kind":"TestUnion","selector":1,"variant":"MessageB","size":5,"payload":"3q2+7w=="}`, out)
		})
	}
}

func TestDecodeOpenLimit(t *testing.T) {
	sealed, err := runCLI(t, "encode", "-d", messagesDefs, "-k", "TestUnion", "-v", "MessageB", "--seal", "gzip", "deadbeef")
	require.NoError(t, err)

	_, err = runCLI(t, "decode", "-d", messagesDefs, "--open", "--max-size", "2", "TestUnion", strings.TrimSpace(sealed))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	out, err := runCLI(t, "list", messagesDefs)
	require.NoError(t, err)

	assert.Contains(t, out, "Frame (5 variants)\n")
	assert.Contains(t, out, "TestUnion (2 variants)\n")
	assert.Regexp(t, `0x00 MessageA\s+fixed 4`, out)
	assert.Regexp(t, `0x01 MessageB\s+variable`, out)
	// kinds are listed in lexical order
	assert.Less(t, strings.Index(out, "Frame"), strings.Index(out, "TestUnion"))
}

func TestListDuplicateKind(t *testing.T) {
	_, err := runCLI(t, "list", messagesDefs, messagesDefs)
	assert.ErrorIs(t, err, union.ErrDuplicateKind)
}

func TestUsage(t *testing.T) {
	_, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "--help")
	assert.NoError(t, err)

	_, err = runCLI(t, "decode", "-h")
	assert.NoError(t, err)
}
