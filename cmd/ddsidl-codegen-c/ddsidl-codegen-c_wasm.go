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

//go:build tinygo

package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
)

var buffers = make(map[*uint8][]uint8)

func main() {}

//go:export ddsidl_codegen_allocate
func ddsidlCodegenAllocate(len uint32) *uint8 {
	if len == 0 || len > math.MaxInt32 {
		return nil
	}
	buf := make([]uint8, int(len))
	ptr := unsafe.SliceData(buf)
	buffers[ptr] = buf
	return ptr
}

//go:export ddsidl_codegen_deallocate
func ddsidlCodegenDeallocate(ptr *uint8) {
	delete(buffers, ptr)
}

//go:export ddsidl_codegen_generate/c
func ddsidlCodegenGenerateC(requestPtr *uint8, responsePtrPtr **uint8) uint8 {
	requestLen := binary.LittleEndian.Uint32(unsafe.Slice(requestPtr, 4))
	requestBuf := unsafe.Slice(requestPtr, requestLen)

	response := generate(requestBuf)
	responseBuf, err := ddsbin.EncodeResponse(response)
	if err != nil {
		response = &ddsbin.Response{Error: fmt.Sprintf("EncodeResponse: %v", err)}
		responseBuf, _ = ddsbin.EncodeResponse(response)
	}

	responsePtr := unsafe.SliceData(responseBuf)
	buffers[responsePtr] = responseBuf
	*responsePtrPtr = responsePtr
	if response.Error != "" {
		return 1
	}
	return 0
}
