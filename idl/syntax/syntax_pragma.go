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

package syntax

import (
	"strings"

	"github.com/google/shlex"
)

// Fields splits the pragma body into shell-style words. The leading
// `#pragma` is not included.
func (n *Pragma) Fields() ([]string, error) {
	body := strings.TrimSpace(n.raw)
	body = strings.TrimPrefix(body, "#")
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "pragma")
	return shlex.Split(body)
}

// Name returns the first word of the pragma, such as "keylist".
func (n *Pragma) Name() string {
	fields, err := n.Fields()
	if err != nil || len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (n *Pragma) Args() []string {
	fields, err := n.Fields()
	if err != nil || len(fields) == 0 {
		return nil
	}
	return fields[1:]
}
