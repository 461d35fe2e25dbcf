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

// Package codec compiles schema messages into executable encoders and
// decoders over the wire runtime.
//
// Each field's strategy is decided once by the planner; the encode and
// decode generators compile the plan into closures walking a wire.Buffer
// or a poisoned wire.Cursor. Messages carry a two-byte big-endian
// discriminant; extensible record containers use the tag as the
// discriminant and are dispatched with unknown tags skipped.
package codec

import (
	"fmt"

	"github.com/grubles/lightning/wire"
	"github.com/grubles/lightning/wiregen/schema"
)

// Codec holds compiled codecs for every message, variant and record
// container of a schema.
type Codec struct {
	byName map[string]*MessageCodec
	byTag  map[uint64]*MessageCodec
	tlvs   map[string]*TlvCodec
}

// New compiles every message of a resolved schema. It fails if any field
// is typed as an externally-allocated aggregate or an opaque struct of
// unknown width; such schemas can only be rendered, not executed.
func New(s *schema.Schema) (*Codec, error) {
	c := &Codec{
		byName: make(map[string]*MessageCodec),
		byTag:  make(map[uint64]*MessageCodec),
		tlvs:   make(map[string]*TlvCodec),
	}
	for _, container := range s.Containers {
		tc, err := newTlvCodec(container)
		if err != nil {
			return nil, err
		}
		c.tlvs[container.Name] = tc
	}
	for _, m := range s.Messages {
		mc, err := c.compileMessage(m)
		if err != nil {
			return nil, err
		}
		c.byName[m.Name] = mc
		c.byTag[m.Tag.Value] = mc
	}
	// Variants share the base discriminant and are only reachable by
	// name; tag dispatch always selects the base message.
	for _, v := range s.Variants {
		mc, err := c.compileMessage(v)
		if err != nil {
			return nil, err
		}
		c.byName[v.Name] = mc
	}
	return c, nil
}

// Message returns the compiled codec for a named message or variant,
// or nil.
func (c *Codec) Message(name string) *MessageCodec {
	return c.byName[name]
}

// Container returns the compiled codec for a named record container,
// or nil.
func (c *Codec) Container(name string) *TlvCodec {
	return c.tlvs[name]
}

// Encode serializes a value as discriminant plus fields. The value's Msg
// selects the message or variant codec.
func (c *Codec) Encode(v *Value) ([]byte, error) {
	mc := c.byName[v.Msg]
	if mc == nil {
		return nil, fmt.Errorf("codec: unknown message %q", v.Msg)
	}
	return mc.Encode(v)
}

// Decode dispatches on the leading discriminant. Variants are never
// selected; decode them directly through their MessageCodec.
func (c *Codec) Decode(data []byte) (*Value, error) {
	cur := wire.NewCursor(data)
	tag := cur.U16()
	if cur.Exhausted() {
		return nil, fmt.Errorf("%w: no discriminant", wire.ErrTruncated)
	}
	mc := c.byTag[uint64(tag)]
	if mc == nil {
		return nil, fmt.Errorf("%w: unknown discriminant %d", wire.ErrTypeMismatch, tag)
	}
	return mc.Decode(data)
}

// MessageCodec is the compiled encoder and decoder for one message.
type MessageCodec struct {
	msg *schema.MessageSpec
	enc []encodeStep
	dec []decodeStep
}

func (c *Codec) compileMessage(m *schema.MessageSpec) (*MessageCodec, error) {
	plan := Plan(m)
	mc := &MessageCodec{msg: m}
	for _, fp := range plan.Fields {
		if fp.Strategy != StrategyPadding {
			if err := checkRepresentable(m, fp.Field); err != nil {
				return nil, err
			}
		}
		enc, err := c.encodeStepFor(m, fp)
		if err != nil {
			return nil, err
		}
		dec, err := c.decodeStepFor(m, fp)
		if err != nil {
			return nil, err
		}
		mc.enc = append(mc.enc, enc)
		mc.dec = append(mc.dec, dec)
	}
	return mc, nil
}

// Encode serializes a value: two discriminant bytes, then every field in
// wire order. Length-source fields are recomputed from the fields they
// describe; values supplied for them are ignored.
func (mc *MessageCodec) Encode(v *Value) ([]byte, error) {
	st := &encState{buf: &wire.Buffer{}}
	st.buf.U16(uint16(mc.msg.Tag.Value))
	for _, step := range mc.enc {
		if err := step(st, v); err != nil {
			return nil, err
		}
	}
	return st.buf.Collect(), nil
}

// Decode deserializes a message payload, discriminant included. Bytes past
// the last field are tolerated; a read past the end of the payload is
// ErrTruncated.
func (mc *MessageCodec) Decode(data []byte) (*Value, error) {
	st := &decState{
		cur:  wire.NewCursor(data),
		lens: make(map[string]int),
		out:  NewValue(mc.msg.Name),
	}
	tag := st.cur.U16()
	if !st.cur.Exhausted() && uint64(tag) != mc.msg.Tag.Value {
		return nil, fmt.Errorf(
			"%w: have %d, want %d",
			wire.ErrTypeMismatch, tag, mc.msg.Tag.Value,
		)
	}
	for _, step := range mc.dec {
		if err := step(st); err != nil {
			return nil, err
		}
	}
	if st.cur.Exhausted() {
		return nil, fmt.Errorf("%w: %s", wire.ErrTruncated, mc.msg.Name)
	}
	return st.out, nil
}
