package ui

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	noColor = false
	t.Cleanup(func() { noColor = false })

	if got := RenderOK("OK"); got != "\x1b[38;5;114mOK\x1b[0m" {
		t.Fatalf("RenderOK = %q", got)
	}
	if got := RenderFail("down"); got != "\x1b[38;5;203mdown\x1b[0m" {
		t.Fatalf("RenderFail = %q", got)
	}

	ForceNoColor()
	for _, fn := range []func(string) string{RenderAccent, RenderMuted, RenderCommand, RenderOK, RenderFail} {
		if got := fn("plain"); got != "plain" {
			t.Fatalf("expected uncolored output, got %q", got)
		}
	}
}

func TestColorEnabled_Env(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColor", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Forced", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "1"}, true},
		{"Disabled", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "", "CLICOLOR": "0"}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if got := ColorEnabled(&strings.Builder{}); got != tc.want {
				t.Fatalf("ColorEnabled = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestColorEnabled_NonTerminalWriter(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "")
	t.Setenv("CLICOLOR", "")
	if ColorEnabled(&strings.Builder{}) {
		t.Fatal("expected no color for an in-memory writer")
	}

	t.Setenv("CLICOLOR_FORCE", "1")
	if !ColorEnabled(&strings.Builder{}) {
		t.Fatal("CLICOLOR_FORCE=1 must force color")
	}
}
