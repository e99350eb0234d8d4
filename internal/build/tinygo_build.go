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

// Command tinygo_build compiles a codegen plugin to WebAssembly with
// TinyGo. It is run through go:generate from the plugin's directory.
package main

import (
	"flag"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/golang/glog"
)

var (
	tinygo   = flag.String("tinygo", "", "path to the tinygo binary (default: search $PATH)")
	output   = flag.String("output", "", "output .wasm file, relative to the working directory")
	target   = flag.String("target", "wasm-unknown", "tinygo target")
	optLevel = flag.String("opt", "z", "tinygo optimization level")
	wasmOpt  = flag.String("wasm-opt", "", "path to wasm-opt, passed to tinygo as $WASMOPT")
)

func main() {
	flag.Parse()
	defer glog.Flush()
	if *output == "" {
		glog.Exit("-output is required")
	}

	tinygoBin := *tinygo
	if tinygoBin == "" {
		found, err := exec.LookPath("tinygo")
		if err != nil {
			glog.Exitf("tinygo not found: %v", err)
		}
		tinygoBin = found
	}
	pwd, err := os.Getwd()
	if err != nil {
		glog.Exit(err)
	}

	tinygoArgs := []string{
		"build",
		"-target=" + *target,
		"-opt=" + *optLevel,
		"-no-debug",
		"-o=" + filepath.Join(pwd, *output),
	}
	pkgs := flag.Args()
	if len(pkgs) == 0 {
		pkgs = []string{"."}
	}
	tinygoArgs = append(tinygoArgs, pkgs...)

	cmd := exec.Command(tinygoBin, tinygoArgs...)
	cmd.Env = os.Environ()
	if *wasmOpt != "" {
		cmd.Env = append(cmd.Env, "WASMOPT="+*wasmOpt)
	}
	cmd.Dir = pwd
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	glog.V(1).Infof("running %s %v", tinygoBin, tinygoArgs)
	if err := cmd.Run(); err != nil {
		glog.Exitf("tinygo build: %v", err)
	}
}
