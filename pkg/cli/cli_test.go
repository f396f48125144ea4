package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBasicFlags(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	var verbose bool
	fs.String(&out, "output", "o", "default.asm", "Output file.", "file")
	fs.Bool(&verbose, "verbose", "v", false, "Verbose mode.")

	if err := fs.Parse([]string{"-o", "out.asm", "-v", "input.c"}); err != nil {
		t.Fatal(err)
	}
	if out != "out.asm" {
		t.Errorf("output = %q", out)
	}
	if !verbose {
		t.Error("shorthand bool not set")
	}
	if diff := cmp.Diff([]string{"input.c"}, fs.Args()); diff != "" {
		t.Errorf("positional args (-want +got):\n%s", diff)
	}
}

func TestParseLongAndEqualsForms(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	fs.String(&out, "output", "o", "", "Output file.", "file")
	if err := fs.Parse([]string{"--output=x.asm"}); err != nil {
		t.Fatal(err)
	}
	if out != "x.asm" {
		t.Errorf("output = %q", out)
	}
}

func TestToggleGroupCollectsPrefixed(t *testing.T) {
	fs := NewFlagSet("test")
	var toggles []string
	fs.ToggleGroupFlags(&toggles, "Warnings", "W", nil)
	fs.ToggleGroupFlags(&toggles, "Features", "F", nil)

	if err := fs.Parse([]string{"-Wno-overflow", "-Fdirectives", "-Wall", "a.c"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"Wno-overflow", "Fdirectives", "Wall"}
	if diff := cmp.Diff(want, toggles); diff != "" {
		t.Errorf("toggles (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.c"}, fs.Args()); diff != "" {
		t.Errorf("positional args (-want +got):\n%s", diff)
	}
}

func TestUnknownFlag(t *testing.T) {
	fs := NewFlagSet("test")
	if err := fs.Parse([]string{"--nope"}); err == nil {
		t.Fatal("expected an error for unknown flag")
	}
}

func TestDoubleDashStopsParsing(t *testing.T) {
	fs := NewFlagSet("test")
	var verbose bool
	fs.Bool(&verbose, "verbose", "v", false, "Verbose mode.")
	if err := fs.Parse([]string{"--", "-v", "file"}); err != nil {
		t.Fatal(err)
	}
	if verbose {
		t.Error("flag after -- was parsed")
	}
	if diff := cmp.Diff([]string{"-v", "file"}, fs.Args()); diff != "" {
		t.Errorf("positional args (-want +got):\n%s", diff)
	}
}
