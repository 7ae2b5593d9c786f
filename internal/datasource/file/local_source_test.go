package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLocalOpen covers success, missing file, and pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		prepare         func(t *testing.T) string
		canceled        bool
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}

	writeData := func(t *testing.T) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "ukb_melted.tsv")
		if err := os.WriteFile(p, []byte("SubjectID\tFieldID\n1\t31\n"), 0o644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
		return p
	}

	cases := []tc{
		{
			name:        "success_reads_content",
			prepare:     writeData,
			wantContent: "SubjectID\tFieldID\n1\t31\n",
		},
		{
			name: "missing_file_errors_with_wrapping",
			prepare: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.tsv")
			},
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name:      "pre_canceled_context_short_circuits",
			prepare:   writeData,
			canceled:  true,
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if c.canceled {
				cancel()
			}

			rc, err := NewLocal(c.prepare(t)).Open(ctx)
			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content mismatch: got %q, want %q", got, c.wantContent)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got, want := ExpandHome("~/ukb/Codings.tsv"), filepath.Join(home, "ukb/Codings.tsv"); got != want {
		t.Fatalf("ExpandHome = %q, want %q", got, want)
	}
	if got := ExpandHome("/abs/1.txt"); got != "/abs/1.txt" {
		t.Fatalf("absolute path changed: %q", got)
	}
	if got := NewLocal("rel/13.txt").Path(); got != "rel/13.txt" {
		t.Fatalf("relative path changed: %q", got)
	}
}
