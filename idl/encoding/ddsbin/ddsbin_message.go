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

// Package ddsbin is the binary encoding of compiled topics exchanged with
// renderer plugins.
//
// A message is an 8-byte header followed by fields:
//
//	header: size u32 | flags u16 (zero) | field count u16
//	field:  tag u16 | kind u16 | length u32 | payload, zero padded to 8
//
// All integers are little-endian. Repeated values repeat their tag.
package ddsbin

import (
	"encoding/binary"
	"fmt"
	"math"
)

const MaxMessageSize = math.MaxInt32 &^ 0b111

type fieldKind uint16

const (
	kindUint32 fieldKind = iota + 1
	kindText
	kindBytes
	kindMessage
)

func (k fieldKind) String() string {
	switch k {
	case kindUint32:
		return "uint32"
	case kindText:
		return "text"
	case kindBytes:
		return "bytes"
	case kindMessage:
		return "message"
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

type DecodeError struct {
	Offset int
	Reason string
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("ddsbin: offset %d: %s", err.Offset, err.Reason)
}

func errDecode(offset int, format string, a ...any) error {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, a...)}
}

type writer struct {
	buf   []byte
	count uint16
}

func newWriter() *writer {
	return &writer{buf: make([]byte, 8)}
}

func (w *writer) field(tag uint16, kind fieldKind, payload []byte) {
	var header [8]byte
	binary.LittleEndian.PutUint16(header[0:2], tag)
	binary.LittleEndian.PutUint16(header[2:4], uint16(kind))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	w.buf = append(w.buf, header[:]...)
	w.buf = append(w.buf, payload...)
	if pad := padding(len(payload)); pad > 0 {
		w.buf = append(w.buf, make([]byte, pad)...)
	}
	w.count++
}

func (w *writer) uint32(tag uint16, value uint32) {
	w.field(tag, kindUint32, binary.LittleEndian.AppendUint32(nil, value))
}

func (w *writer) text(tag uint16, value string) {
	if value == "" {
		return
	}
	w.field(tag, kindText, []byte(value))
}

func (w *writer) bytes(tag uint16, value []byte) {
	w.field(tag, kindBytes, value)
}

func (w *writer) message(tag uint16, value []byte) {
	w.field(tag, kindMessage, value)
}

func (w *writer) finish() ([]byte, error) {
	if len(w.buf) > MaxMessageSize {
		return nil, fmt.Errorf("ddsbin: message size %d exceeds limit", len(w.buf))
	}
	binary.LittleEndian.PutUint32(w.buf[0:4], uint32(len(w.buf)))
	binary.LittleEndian.PutUint16(w.buf[4:6], 0)
	binary.LittleEndian.PutUint16(w.buf[6:8], w.count)
	return w.buf, nil
}

func padding(n int) int {
	return (8 - n%8) % 8
}

type field struct {
	tag     uint16
	kind    fieldKind
	offset  int
	payload []byte
}

// parseMessage splits buf into its fields, checking sizes and padding.
func parseMessage(buf []byte) ([]field, error) {
	if len(buf) < 8 {
		return nil, errDecode(0, "message too short (%d bytes)", len(buf))
	}
	size := binary.LittleEndian.Uint32(buf[0:4])
	if int(size) != len(buf) {
		return nil, errDecode(0, "message size %d does not match buffer size %d", size, len(buf))
	}
	if flags := binary.LittleEndian.Uint16(buf[4:6]); flags != 0 {
		return nil, errDecode(4, "unknown message flags 0x%04X", flags)
	}
	count := int(binary.LittleEndian.Uint16(buf[6:8]))

	fields := make([]field, 0, count)
	offset := 8
	for ii := 0; ii < count; ii++ {
		if len(buf)-offset < 8 {
			return nil, errDecode(offset, "truncated field header")
		}
		header := buf[offset : offset+8]
		rawLength := binary.LittleEndian.Uint32(header[4:8])
		if uint64(rawLength) > uint64(len(buf)-offset-8) {
			return nil, errDecode(offset, "field length %d overflows message", rawLength)
		}
		length := int(rawLength)
		start := offset + 8
		end := start + length
		padded := end + padding(length)
		if padded > len(buf) {
			return nil, errDecode(end, "missing padding")
		}
		for _, pad := range buf[end:padded] {
			if pad != 0 {
				return nil, errDecode(end, "non-zero padding")
			}
		}
		fields = append(fields, field{
			tag:     binary.LittleEndian.Uint16(header[0:2]),
			kind:    fieldKind(binary.LittleEndian.Uint16(header[2:4])),
			offset:  offset,
			payload: buf[start:end],
		})
		offset = padded
	}
	if offset != len(buf) {
		return nil, errDecode(offset, "%d trailing bytes", len(buf)-offset)
	}
	return fields, nil
}

func (f field) expect(kind fieldKind) error {
	if f.kind != kind {
		return errDecode(f.offset, "field %d: expected %v, got %v", f.tag, kind, f.kind)
	}
	return nil
}

func (f field) uint32() (uint32, error) {
	if err := f.expect(kindUint32); err != nil {
		return 0, err
	}
	if len(f.payload) != 4 {
		return 0, errDecode(f.offset, "field %d: uint32 of length %d", f.tag, len(f.payload))
	}
	return binary.LittleEndian.Uint32(f.payload), nil
}

func (f field) text() (string, error) {
	if err := f.expect(kindText); err != nil {
		return "", err
	}
	return string(f.payload), nil
}

func (f field) bytes() ([]byte, error) {
	if err := f.expect(kindBytes); err != nil {
		return nil, err
	}
	return append([]byte(nil), f.payload...), nil
}

func (f field) message() ([]field, error) {
	if err := f.expect(kindMessage); err != nil {
		return nil, err
	}
	return parseMessage(f.payload)
}

func (f field) unknown() error {
	return errDecode(f.offset, "unknown field tag %d", f.tag)
}
