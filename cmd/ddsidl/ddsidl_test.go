// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := parseConfig([]byte(`
policy: lenient
map_wide: true
xml: false
plugin_path: /opt/ddsidl/plugins
`))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	s := defaultSettings()
	s.applyConfig(cfg)
	want := settings{
		policy:     compiler.Policy_LENIENT,
		mapWide:    true,
		xml:        false,
		pluginPath: "/opt/ddsidl/plugins",
	}
	if diff := cmp.Diff(want, s, cmp.AllowUnexported(settings{})); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"lenient", "map-wide", "no-xml"}, s.names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"policy: relaxed\n",
		"map_wide: yes please\n",
		"unknown_key: 1\n",
	} {
		if _, err := parseConfig([]byte(src)); err == nil {
			t.Errorf("parseConfig(%q) succeeded, want error", src)
		}
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "ddsidl.yaml")
	if err := os.WriteFile(cfgPath, []byte("policy: lenient\nall_structs: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var f compileFlags
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(flags)
	if err := flags.Parse([]string{"--config", cfgPath, "--lenient=false", "--no-xml"}); err != nil {
		t.Fatal(err)
	}
	s, err := f.settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.policy != compiler.Policy_STRICT {
		t.Errorf("policy = %v, want STRICT", s.policy)
	}
	if !s.allStructs {
		t.Errorf("allStructs from config was lost")
	}
	if s.xml {
		t.Errorf("--no-xml was ignored")
	}
}

func TestMissingConfig(t *testing.T) {
	t.Parallel()

	f := compileFlags{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
	if _, err := f.settings(); err == nil {
		t.Fatal("settings() with a missing config file succeeded")
	}
}

func TestOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format, outPath, want string
	}{
		{"text", "", "text"},
		{"ddsbin", "", "binary"},
		{"debug", "out.txt", "debug"},
		{"", "out.txt", "text"},
		{"", "out.ddsbin", "binary"},
		{"", "types.xml", "xml"},
	}
	for _, test := range tests {
		got, err := outputFormat(test.format, test.outPath)
		if err != nil {
			t.Errorf("outputFormat(%q, %q): %v", test.format, test.outPath, err)
			continue
		}
		if got != test.want {
			t.Errorf("outputFormat(%q, %q) = %q, want %q", test.format, test.outPath, got, test.want)
		}
	}
	if _, err := outputFormat("", "out.c"); err == nil {
		t.Error("outputFormat without a format or known extension succeeded")
	}
	if _, err := outputFormat("yaml", ""); err == nil {
		t.Error("outputFormat(yaml) succeeded")
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	got, err := outputPath("out", &ddsbin.OutputFile{Path: []string{"gen", "k.c"}})
	if err != nil {
		t.Fatalf("outputPath: %v", err)
	}
	if want := filepath.Join("out", "gen", "k.c"); got != want {
		t.Errorf("outputPath = %q, want %q", got, want)
	}

	for _, path := range [][]string{
		nil,
		{""},
		{".."},
		{"gen", "."},
		{"/etc/passwd"},
		{"a/b.c"},
		{`a\b.c`},
	} {
		if _, err := outputPath("out", &ddsbin.OutputFile{Path: path}); err == nil {
			t.Errorf("outputPath(%q) succeeded, want error", path)
		}
	}
}

func TestLocatePlugin(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	dir := t.TempDir()
	plugin := filepath.Join(dir, "ddsidl-codegen-c.wasm")
	if err := os.WriteFile(plugin, []byte("\x00asm"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := locatePlugin(empty+string(filepath.ListSeparator)+dir, "c")
	if err != nil {
		t.Fatalf("locatePlugin: %v", err)
	}
	if got != plugin {
		t.Errorf("locatePlugin = %q, want %q", got, plugin)
	}
	if _, err := locatePlugin(dir, "python"); err == nil {
		t.Error("locatePlugin found a plugin for an unknown language")
	}
}

func writeIDL(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.idl")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileFileDiagnostics(t *testing.T) {
	t.Parallel()

	path := writeIDL(t, "struct S {\n  long a;\n  Missing m;\n};\n")
	var stderr bytes.Buffer
	if result := compileFile(&stderr, path, defaultSettings(), false); result != nil {
		t.Fatalf("compileFile succeeded, want errors")
	}
	want := path + ":3:3: E3001: Missing is not defined\n"
	if got := stderr.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestCompileFileWarnings(t *testing.T) {
	t.Parallel()

	path := writeIDL(t, "struct W { wchar c; };\nstruct S { long a; };\n#pragma keylist S a\n")
	s := defaultSettings()
	s.policy = compiler.Policy_LENIENT
	var stderr bytes.Buffer
	result := compileFile(&stderr, path, s, false)
	if result == nil {
		t.Fatalf("compileFile failed:\n%s", stderr.String())
	}
	if len(result.Topics) != 1 {
		t.Errorf("got %d topics, want 1", len(result.Topics))
	}
	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], path+":1:12: W4000:") {
		t.Errorf("unexpected warnings:\n%s", stderr.String())
	}
}

func TestEncodeResult(t *testing.T) {
	t.Parallel()

	path := writeIDL(t, "module M { struct K { long id; }; };\n#pragma keylist M::K id\n")
	s := defaultSettings()
	s.xml = false
	var stderr bytes.Buffer
	result := compileFile(&stderr, path, s, false)
	if result == nil {
		t.Fatalf("compileFile failed:\n%s", stderr.String())
	}

	text, err := encodeResult(result, "text", path, s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), `name = "M::K"`) {
		t.Errorf("text output is missing the topic:\n%s", text)
	}

	bin, err := encodeResult(result, "binary", path, s)
	if err != nil {
		t.Fatal(err)
	}
	req, err := ddsbin.DecodeRequest(bin)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Source != path || len(req.Topics) != 1 || req.Topics[0].TypeName != "M_K" {
		t.Errorf("unexpected request %+v", req)
	}
	if len(req.Types) != 1 || req.Types[0].Name != "M_K" || req.Types[0].Kind != ddsbin.DeclStruct {
		t.Errorf("unexpected type declarations %+v", req.Types)
	}
	if diff := cmp.Diff([]string{"no-xml"}, req.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	xml, err := encodeResult(result, "xml", path, s)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<MetaData version="1.0.0"><Module name="M"><Struct name="K">`; !strings.HasPrefix(string(xml), want) {
		t.Errorf("xml = %q, want prefix %q", xml, want)
	}
}
