package resolve

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pterm/pterm"
	"github.com/releasehq/relctl/internal/releaseerr"
	"github.com/releasehq/relctl/internal/telemetry"
)

func TestCmd_Run(t *testing.T) {
	b := bytes.NewBufferString("")
	pterm.SetDefaultOutput(b)
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
	})

	out := filepath.Join(t.TempDir(), "outputs")

	cmd := &Cmd{
		Tag:    "integrations/google_vertex-v1.0.99",
		Output: out,
	}

	if err := cmd.Run(context.Background(), &telemetry.MockClient{}); err != nil {
		t.Fatal(err)
	}

	exp := "project_path: integrations/google_vertex\nversion: v1.0.99\n"
	if d := cmp.Diff(exp, b.String()); d != "" {
		t.Error("output mismatch (-want +got):\n", d)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	expFile := "project_path=integrations/google_vertex\nversion=v1.0.99\n"
	if d := cmp.Diff(expFile, string(got)); d != "" {
		t.Error("output file mismatch (-want +got):\n", d)
	}
}

func TestCmd_Run_MalformedTag(t *testing.T) {
	cmd := &Cmd{Tag: "integrations/google_vertex"}

	err := cmd.Run(context.Background(), &telemetry.MockClient{})
	if !errors.Is(err, releaseerr.ErrMalformedTag) {
		t.Errorf("expected ErrMalformedTag, got %v", err)
	}
}
