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

// Command ddsidl-codegen-c renders compiled topics as C99 source. It runs
// as a WebAssembly plugin of `ddsidl codegen`, or natively on a request
// written by `ddsidl compile --format=binary`.
package main

//go:generate go run ../../internal/build -output ddsidl-codegen-c.wasm .

import (
	"fmt"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/render/c99"
)

// generate renders every topic in an encoded request. Failures are
// reported in the response's Error field.
func generate(requestBuf []byte) *ddsbin.Response {
	req, err := ddsbin.DecodeRequest(requestBuf)
	if err != nil {
		return &ddsbin.Response{Error: fmt.Sprintf("DecodeRequest: %v", err)}
	}
	files, err := c99.Render(req)
	if err != nil {
		return &ddsbin.Response{Error: err.Error()}
	}
	return &ddsbin.Response{Files: files}
}
