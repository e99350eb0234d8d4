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
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
)

type policyName compiler.Policy

var _ yaml.Unmarshaler = (*policyName)(nil)

func (p *policyName) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("could not unmarshal policy: %w", err)
	}
	switch strings.ToLower(s) {
	case "strict":
		*p = policyName(compiler.Policy_STRICT)
	case "lenient":
		*p = policyName(compiler.Policy_LENIENT)
	default:
		return fmt.Errorf("unknown policy %q (choose 'strict' or 'lenient')", s)
	}
	return nil
}

// config is the contents of a --config file. Unset fields keep their
// defaults.
type config struct {
	Policy        *policyName `yaml:"policy"`
	MapWide       bool        `yaml:"map_wide"`
	MapLongDouble bool        `yaml:"map_long_double"`
	AllStructs    bool        `yaml:"all_structs"`
	XML           *bool       `yaml:"xml"`
	PluginPath    string      `yaml:"plugin_path"`
}

func parseConfig(buf []byte) (*config, error) {
	cfg := &config{}
	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfig(path string) (*config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := parseConfig(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// settings are the effective compiler settings after merging the config
// file with the command line.
type settings struct {
	policy        compiler.Policy
	mapWide       bool
	mapLongDouble bool
	allStructs    bool
	xml           bool
	pluginPath    string
}

func defaultSettings() settings {
	return settings{
		policy: compiler.Policy_STRICT,
		xml:    true,
	}
}

func (s *settings) applyConfig(cfg *config) {
	if cfg.Policy != nil {
		s.policy = compiler.Policy(*cfg.Policy)
	}
	s.mapWide = s.mapWide || cfg.MapWide
	s.mapLongDouble = s.mapLongDouble || cfg.MapLongDouble
	s.allStructs = s.allStructs || cfg.AllStructs
	if cfg.XML != nil {
		s.xml = *cfg.XML
	}
	if cfg.PluginPath != "" {
		s.pluginPath = cfg.PluginPath
	}
}

func (s settings) compileOptions() []compiler.CompileOption {
	return []compiler.CompileOption{
		compiler.WithPolicy(s.policy),
		compiler.WithMapWide(s.mapWide),
		compiler.WithMapLongDouble(s.mapLongDouble),
		compiler.WithAllStructs(s.allStructs),
		compiler.WithXML(s.xml),
	}
}

// names lists the settings that differ from the defaults, in flag
// spelling.
func (s settings) names() []string {
	var out []string
	if s.policy == compiler.Policy_LENIENT {
		out = append(out, "lenient")
	}
	if s.mapWide {
		out = append(out, "map-wide")
	}
	if s.mapLongDouble {
		out = append(out, "map-long-double")
	}
	if s.allStructs {
		out = append(out, "all-structs")
	}
	if !s.xml {
		out = append(out, "no-xml")
	}
	return out
}

// compileFlags are shared by every command that compiles a source file.
type compileFlags struct {
	flagSet       *pflag.FlagSet
	configPath    string
	lenient       bool
	mapWide       bool
	mapLongDouble bool
	allStructs    bool
	noXML         bool
}

func (f *compileFlags) register(flags *pflag.FlagSet) {
	f.flagSet = flags
	flags.StringVar(&f.configPath, "config", "", "YAML file with default settings")
	flags.BoolVar(&f.lenient, "lenient", false, "skip declarations using unsupported types instead of failing")
	flags.BoolVar(&f.mapWide, "map-wide", false, "map wchar and wstring to char and string")
	flags.BoolVar(&f.mapLongDouble, "map-long-double", false, "map long double to double")
	flags.BoolVar(&f.allStructs, "all-structs", false, "generate a topic for every struct")
	flags.BoolVar(&f.noXML, "no-xml", false, "omit XML type descriptors")
}

func (f *compileFlags) changed(name string) bool {
	return f.flagSet != nil && f.flagSet.Changed(name)
}

// settings merges the config file, if any, with flags given on the
// command line. Flags win.
func (f *compileFlags) settings() (settings, error) {
	s := defaultSettings()
	if f.configPath != "" {
		cfg, err := loadConfig(f.configPath)
		if err != nil {
			return s, err
		}
		glog.V(1).Infof("loaded config from %s", f.configPath)
		s.applyConfig(cfg)
	}
	if f.changed("lenient") {
		s.policy = compiler.Policy_STRICT
		if f.lenient {
			s.policy = compiler.Policy_LENIENT
		}
	}
	if f.changed("map-wide") {
		s.mapWide = f.mapWide
	}
	if f.changed("map-long-double") {
		s.mapLongDouble = f.mapLongDouble
	}
	if f.changed("all-structs") {
		s.allStructs = f.allStructs
	}
	if f.changed("no-xml") {
		s.xml = !f.noXML
	}
	return s, nil
}
