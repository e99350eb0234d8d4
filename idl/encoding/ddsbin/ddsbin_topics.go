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

package ddsbin

import (
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
)

type Key struct {
	Name   string
	Offset uint32
}

// Descriptor is everything a renderer needs to emit one topic.
type Descriptor struct {
	Name      string
	TypeName  string
	Alignment string
	Flags     string
	// KeySize is zero when the key is unbounded or absent.
	KeySize uint32
	Keys    []Key
	Ops     []string
	XML     string
}

func NewDescriptor(topic *compiler.Topic) *Descriptor {
	desc := &Descriptor{
		Name:      topic.Name.String(),
		TypeName:  topic.Name.CName(),
		Alignment: topic.Alignment.Value(),
		Flags:     topic.Flags.String(),
		XML:       topic.XML,
	}
	if !topic.KeySize.Unbounded {
		desc.KeySize = uint32(topic.KeySize.N)
	}
	for _, key := range topic.Keys {
		desc.Keys = append(desc.Keys, Key{Name: key.Name, Offset: uint32(key.Offset)})
	}
	for _, op := range topic.Ops {
		desc.Ops = append(desc.Ops, op.String())
	}
	return desc
}

// Request is sent to a renderer plugin.
type Request struct {
	// Source is the path of the IDL file, as given on the command line.
	Source  string
	Options []string
	// Types declares every type the topics refer to, in emission order.
	Types  []*TypeDecl
	Topics []*Descriptor
}

// NewRequest describes a successful compile. result.Types must be set.
func NewRequest(source string, result *compiler.Result) (*Request, error) {
	types, err := NewTypeDecls(result.Types)
	if err != nil {
		return nil, err
	}
	req := &Request{Source: source, Types: types}
	for _, topic := range result.Topics {
		req.Topics = append(req.Topics, NewDescriptor(topic))
	}
	return req, nil
}

type OutputFile struct {
	Path    []string
	Content []byte
}

// Response is returned by a renderer plugin. A non-empty Error means the
// plugin failed and Files must be ignored.
type Response struct {
	Error string
	Files []*OutputFile
}

const (
	tagKeyName   = 1
	tagKeyOffset = 2

	tagDescName      = 1
	tagDescTypeName  = 2
	tagDescAlignment = 3
	tagDescFlags     = 4
	tagDescKeySize   = 5
	tagDescKey       = 6
	tagDescOp        = 7
	tagDescXML       = 8

	tagRequestSource = 1
	tagRequestOption = 2
	tagRequestTopic  = 3
	tagRequestType   = 4

	tagFilePath    = 1
	tagFileContent = 2

	tagResponseError = 1
	tagResponseFile  = 2
)

func encodeKey(key Key) ([]byte, error) {
	w := newWriter()
	w.text(tagKeyName, key.Name)
	w.uint32(tagKeyOffset, key.Offset)
	return w.finish()
}

func decodeKey(fields []field) (Key, error) {
	var key Key
	var err error
	for _, f := range fields {
		switch f.tag {
		case tagKeyName:
			key.Name, err = f.text()
		case tagKeyOffset:
			key.Offset, err = f.uint32()
		default:
			err = f.unknown()
		}
		if err != nil {
			return Key{}, err
		}
	}
	return key, nil
}

func EncodeDescriptor(desc *Descriptor) ([]byte, error) {
	w := newWriter()
	w.text(tagDescName, desc.Name)
	w.text(tagDescTypeName, desc.TypeName)
	w.text(tagDescAlignment, desc.Alignment)
	w.text(tagDescFlags, desc.Flags)
	w.uint32(tagDescKeySize, desc.KeySize)
	for _, key := range desc.Keys {
		buf, err := encodeKey(key)
		if err != nil {
			return nil, err
		}
		w.message(tagDescKey, buf)
	}
	for _, op := range desc.Ops {
		w.field(tagDescOp, kindText, []byte(op))
	}
	w.text(tagDescXML, desc.XML)
	return w.finish()
}

func DecodeDescriptor(buf []byte) (*Descriptor, error) {
	fields, err := parseMessage(buf)
	if err != nil {
		return nil, err
	}
	return decodeDescriptor(fields)
}

func decodeDescriptor(fields []field) (*Descriptor, error) {
	desc := &Descriptor{}
	for _, f := range fields {
		var err error
		switch f.tag {
		case tagDescName:
			desc.Name, err = f.text()
		case tagDescTypeName:
			desc.TypeName, err = f.text()
		case tagDescAlignment:
			desc.Alignment, err = f.text()
		case tagDescFlags:
			desc.Flags, err = f.text()
		case tagDescKeySize:
			desc.KeySize, err = f.uint32()
		case tagDescKey:
			var keyFields []field
			if keyFields, err = f.message(); err == nil {
				var key Key
				if key, err = decodeKey(keyFields); err == nil {
					desc.Keys = append(desc.Keys, key)
				}
			}
		case tagDescOp:
			var op string
			if op, err = f.text(); err == nil {
				desc.Ops = append(desc.Ops, op)
			}
		case tagDescXML:
			desc.XML, err = f.text()
		default:
			err = f.unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	return desc, nil
}

func EncodeRequest(req *Request) ([]byte, error) {
	w := newWriter()
	w.text(tagRequestSource, req.Source)
	for _, opt := range req.Options {
		w.field(tagRequestOption, kindText, []byte(opt))
	}
	for _, decl := range req.Types {
		buf, err := encodeTypeDecl(decl)
		if err != nil {
			return nil, err
		}
		w.message(tagRequestType, buf)
	}
	for _, desc := range req.Topics {
		buf, err := EncodeDescriptor(desc)
		if err != nil {
			return nil, err
		}
		w.message(tagRequestTopic, buf)
	}
	return w.finish()
}

func DecodeRequest(buf []byte) (*Request, error) {
	fields, err := parseMessage(buf)
	if err != nil {
		return nil, err
	}
	req := &Request{}
	for _, f := range fields {
		switch f.tag {
		case tagRequestSource:
			req.Source, err = f.text()
		case tagRequestOption:
			var opt string
			if opt, err = f.text(); err == nil {
				req.Options = append(req.Options, opt)
			}
		case tagRequestType:
			var declFields []field
			if declFields, err = f.message(); err == nil {
				var decl *TypeDecl
				if decl, err = decodeTypeDecl(declFields); err == nil {
					req.Types = append(req.Types, decl)
				}
			}
		case tagRequestTopic:
			var descFields []field
			if descFields, err = f.message(); err == nil {
				var desc *Descriptor
				if desc, err = decodeDescriptor(descFields); err == nil {
					req.Topics = append(req.Topics, desc)
				}
			}
		default:
			err = f.unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

func EncodeResponse(resp *Response) ([]byte, error) {
	w := newWriter()
	w.text(tagResponseError, resp.Error)
	for _, file := range resp.Files {
		fw := newWriter()
		for _, part := range file.Path {
			fw.field(tagFilePath, kindText, []byte(part))
		}
		fw.bytes(tagFileContent, file.Content)
		buf, err := fw.finish()
		if err != nil {
			return nil, err
		}
		w.message(tagResponseFile, buf)
	}
	return w.finish()
}

func DecodeResponse(buf []byte) (*Response, error) {
	fields, err := parseMessage(buf)
	if err != nil {
		return nil, err
	}
	resp := &Response{}
	for _, f := range fields {
		switch f.tag {
		case tagResponseError:
			resp.Error, err = f.text()
		case tagResponseFile:
			var fileFields []field
			if fileFields, err = f.message(); err == nil {
				var file *OutputFile
				if file, err = decodeOutputFile(fileFields); err == nil {
					resp.Files = append(resp.Files, file)
				}
			}
		default:
			err = f.unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func decodeOutputFile(fields []field) (*OutputFile, error) {
	file := &OutputFile{}
	for _, f := range fields {
		var err error
		switch f.tag {
		case tagFilePath:
			var part string
			if part, err = f.text(); err == nil {
				file.Path = append(file.Path, part)
			}
		case tagFileContent:
			file.Content, err = f.bytes()
		default:
			err = f.unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	return file, nil
}
