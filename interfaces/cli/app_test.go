package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestApp_VersionCommand(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("ExecuteWithArgs: %v", err)
	}
	if !strings.Contains(stdout.String(), "worker version") {
		t.Errorf("stdout = %q, want it to mention worker version", stdout.String())
	}
}

func TestApp_IndexCommand_MissingManifest(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"index", "--manifest", "/nonexistent/build-manifest.json"})
	if err == nil {
		t.Fatal("expected an error for a missing manifest file")
	}
}

func TestApp_UnknownCommand(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected an error for an unknown subcommand")
	}
}
