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

package testutil

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"testing"

	"gopkg.in/yaml.v2"
)

//go:embed testdata
var testdataFS embed.FS

func TestdataFS() (fs.FS, error) {
	return fs.Sub(testdataFS, "testdata")
}

// Diagnostic describes one compiler error or warning code known to the
// test suite.
type Diagnostic struct {
	Key     string
	Code    uint32
	Pattern *regexp.Regexp
}

// LoadDiagnostics reads a YAML map of diagnostic keys to codes and
// message patterns. Keys must have distinct codes.
func LoadDiagnostics(testdata fs.FS, path string) (map[string]*Diagnostic, error) {
	type raw struct {
		Code    uint32 `yaml:"code"`
		Pattern string `yaml:"message_pattern"`
	}

	yamlData, err := fs.ReadFile(testdata, path)
	if err != nil {
		return nil, err
	}
	var rawDiags map[string]raw
	if err := yaml.UnmarshalStrict(yamlData, &rawDiags); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make(map[string]*Diagnostic, len(rawDiags))
	codes := make(map[uint32]string, len(rawDiags))
	for key, raw := range rawDiags {
		if raw.Code == 0 {
			return nil, fmt.Errorf("diagnostic %q has no code", key)
		}
		if other, conflict := codes[raw.Code]; conflict {
			return nil, fmt.Errorf("diagnostics %q and %q share code %d", key, other, raw.Code)
		}
		codes[raw.Code] = key

		var pattern *regexp.Regexp
		if raw.Pattern != "" {
			pattern, err = regexp.Compile("(?i)" + raw.Pattern)
			if err != nil {
				return nil, err
			}
		}
		out[key] = &Diagnostic{Key: key, Code: raw.Code, Pattern: pattern}
	}
	return out, nil
}

// ExpectedDiagnostic is one entry of a test case's expectations. SpanText
// is the source text the diagnostic must point at.
type ExpectedDiagnostic struct {
	Diagnostic
	SpanText string
}

// Expectations are the contents of a test case's expect.yaml.
type Expectations struct {
	Options  []string
	Errors   []*ExpectedDiagnostic
	Warnings []*ExpectedDiagnostic
	Topics   []string
}

func LoadExpectations(
	t *testing.T,
	known map[string]*Diagnostic,
	testdata fs.FS,
	path string,
) *Expectations {
	t.Helper()

	type rawEntry struct {
		Key      string `yaml:"key"`
		SpanText string `yaml:"span_text"`
	}
	type rawExpect struct {
		Options  []string   `yaml:"options"`
		Errors   []rawEntry `yaml:"errors"`
		Warnings []rawEntry `yaml:"warnings"`
		Topics   []string   `yaml:"topics"`
	}

	yamlData, err := fs.ReadFile(testdata, path)
	if err != nil {
		t.Fatal(err)
	}
	var raw rawExpect
	if err := yaml.UnmarshalStrict(yamlData, &raw); err != nil {
		t.Fatalf("%s: %v", path, err)
	}

	resolve := func(entries []rawEntry) []*ExpectedDiagnostic {
		var out []*ExpectedDiagnostic
		for _, entry := range entries {
			diag, ok := known[entry.Key]
			if !ok {
				t.Fatalf("%s: unknown diagnostic %q", path, entry.Key)
			}
			out = append(out, &ExpectedDiagnostic{
				Diagnostic: *diag,
				SpanText:   entry.SpanText,
			})
		}
		return out
	}
	return &Expectations{
		Options:  raw.Options,
		Errors:   resolve(raw.Errors),
		Warnings: resolve(raw.Warnings),
		Topics:   raw.Topics,
	}
}
