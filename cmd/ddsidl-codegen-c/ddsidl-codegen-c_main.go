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

//go:build !tinygo

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

var outDir = flag.String("output", ".", "directory for the generated files")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-output DIR] REQUEST.ddsbin\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	defer glog.Flush()

	requestPath := flag.Arg(0)
	var requestBuf []byte
	var err error
	if requestPath == "-" {
		requestBuf, err = io.ReadAll(os.Stdin)
	} else {
		requestBuf, err = os.ReadFile(requestPath)
	}
	if err != nil {
		glog.Exitf("reading %s: %v", requestPath, err)
	}

	response := generate(requestBuf)
	if response.Error != "" {
		glog.Exit(response.Error)
	}
	for _, file := range response.Files {
		path := filepath.Join(append([]string{*outDir}, file.Path...)...)
		glog.V(1).Infof("writing %s", path)
		if err := os.WriteFile(path, file.Content, 0o644); err != nil {
			glog.Exit(err)
		}
	}
}
