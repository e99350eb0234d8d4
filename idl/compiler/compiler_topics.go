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

package compiler

import (
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
)

func (c *compiler) assembleTopics() {
	byTopic := make(map[string]*keylist)
	for _, kl := range c.keylists {
		key := kl.topic.String()
		if _, dup := byTopic[key]; dup {
			c.warn(warnDuplicateKeylist(kl.topic, kl.span))
		}
		byTopic[key] = kl
	}

	for _, t := range c.types.All() {
		s, isStruct := t.(*meta.Struct)
		if !isStruct {
			continue
		}
		kl, keyed := byTopic[s.Name.String()]
		if !keyed && !c.opts.allStructs {
			continue
		}
		if topic := c.assembleTopic(s, kl); topic != nil {
			c.topics = append(c.topics, topic)
		}
	}
}

// assembleTopic builds the descriptor of s. kl may be nil, in which case
// the topic has no key.
func (c *compiler) assembleTopic(s *meta.Struct, kl *keylist) *Topic {
	keyed := meta.Clone(s).(*meta.Struct)
	topic := &Topic{
		Name: s.Name,
		Type: keyed,
	}
	if kl != nil {
		for _, field := range kl.fields {
			offset, err := meta.MarkKey(keyed, field)
			if err != nil {
				c.err(errKeyPath(s.Name, err, kl.span))
				return nil
			}
			topic.Keys = append(topic.Keys, KeyField{Name: field, Offset: offset})
		}
	}

	topic.Ops = meta.TopicProgram(keyed)
	topic.Alignment = meta.AlignmentOf(keyed)
	topic.KeySize = meta.KeySizeOf(keyed)
	topic.Flags = meta.TopicFlagsOf(keyed)
	if c.opts.xml {
		xml, err := meta.TopicXML(c.types, s)
		if err != nil {
			c.err(errTypeOrder(err))
			return nil
		}
		topic.XML = xml
	}
	return topic
}
