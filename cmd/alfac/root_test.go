// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validPolicySource = `namespace example {
	type myInt = "http://www.w3.org/2001/XMLSchema#integer"
	category subjectCat = "urn:oasis:names:tc:xacml:1.0:subject-category:access-subject"

	attribute Age {
		id = "urn:attr:age"
		type = myInt
		category = subjectCat
	}

	policy AdultsOnly {
		apply firstApplicable

		rule Grant {
			permit
			condition Age >= 18;
		}
	}
}
`

func execRoot(t *testing.T, args ...string) error {
	t.Helper()
	prev := cmdErrWriter
	cmdErrWriter = &bytes.Buffer{}
	defer func() { cmdErrWriter = prev }()

	cmd := newRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})
	return cmd.Execute()
}

func TestExitCodeNilIsZero(t *testing.T) {
	require.Equal(t, 0, exitCode(nil))
}

func TestExitCodeUsageErrorIsTwo(t *testing.T) {
	require.Equal(t, 2, exitCode(usageError("missing %s", "--input")))
}

func TestExitCodeIOErrorIsThree(t *testing.T) {
	require.Equal(t, 3, exitCode(ioError(errors.New("disk full"))))
}

func TestExitCodeUnwrapsWrappedExitCodeError(t *testing.T) {
	wrapped := fmt.Errorf("loading config: %w", ioError(errors.New("disk full")))
	require.Equal(t, 3, exitCode(wrapped))
}

func TestExitCodeUnknownErrorDefaultsToTwo(t *testing.T) {
	require.Equal(t, 2, exitCode(errors.New("cobra flag parse failure")))
}

func TestRunRootRequiresInput(t *testing.T) {
	outDir := t.TempDir()
	err := execRoot(t, "--output", outDir)
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
}

func TestRunRootRequiresOutput(t *testing.T) {
	inDir := t.TempDir()
	err := execRoot(t, "--input", inDir)
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
}

func TestRunRootCompilesValidPolicy(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "policy.alfa"), []byte(validPolicySource), 0o644))

	err := execRoot(t, "--input", inDir, "--output", outDir, "--disable-builtins")
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRunRootCompileFailureExitsOne(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "broken.alfa"), []byte("policy {"), 0o644))

	err := execRoot(t, "--input", inDir, "--output", outDir, "--disable-builtins")
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
}

func TestRunRootShowBuiltinsPrintsCatalogWithoutInputOutput(t *testing.T) {
	err := execRoot(t, "--show-builtins")
	require.NoError(t, err)
}

func TestLoadConfigLayersYAMLUnderUnsetFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "alfac.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("input:\n  - "+dir+"\noutput: "+dir+"\nnamespace: example\n"), 0o644))

	cmd := newRootCmd("test")
	opts := &cliOptions{configFile: cfgPath}
	require.NoError(t, loadConfig(opts, cmd.Flags()))
	require.Equal(t, []string{dir}, opts.inputs)
	require.Equal(t, dir, opts.output)
	require.Equal(t, "example", opts.namespace)
}

func TestLoadConfigDoesNotOverrideExplicitFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "alfac.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("namespace: fromfile\n"), 0o644))

	cmd := newRootCmd("test")
	require.NoError(t, cmd.Flags().Set("namespace", "fromflag"))
	opts := &cliOptions{configFile: cfgPath, namespace: "fromflag"}
	require.NoError(t, loadConfig(opts, cmd.Flags()))
	require.Equal(t, "fromflag", opts.namespace)
}

func TestLoadConfigNoopWithoutConfigFile(t *testing.T) {
	cmd := newRootCmd("test")
	opts := &cliOptions{}
	require.NoError(t, loadConfig(opts, cmd.Flags()))
	require.Empty(t, opts.inputs)
}

func TestLoadConfigErrorsOnMissingFile(t *testing.T) {
	cmd := newRootCmd("test")
	opts := &cliOptions{configFile: "/does/not/exist.yaml"}
	require.Error(t, loadConfig(opts, cmd.Flags()))
}
