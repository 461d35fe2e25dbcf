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

package codec

import (
	"fmt"

	"github.com/grubles/lightning/wire"
	"github.com/grubles/lightning/wiregen/schema"
)

type decodeStep func(st *decState) error

type decState struct {
	cur *wire.Cursor

	// Length-source values, transient: they parameterize later reads and
	// never reach the decoded value.
	lens map[string]int

	out *Value
}

func (c *Codec) decodeStepFor(m *schema.MessageSpec, fp FieldPlan) (decodeStep, error) {
	f := fp.Field
	switch fp.Strategy {
	case StrategyPadding:
		n := f.Count
		return func(st *decState) error {
			st.cur.Pad(n)
			return nil
		}, nil

	case StrategyScalar, StrategyBlob:
		return func(st *decState) error {
			st.out.Fields[f.Name] = decodeElem(st.cur, f.Type)
			return nil
		}, nil

	case StrategyBulkArray:
		n := f.Count
		return func(st *decState) error {
			st.out.Fields[f.Name] = st.cur.Bytes(n)
			return nil
		}, nil

	case StrategyElemArray:
		n := f.Count
		return func(st *decState) error {
			elems := make([]any, 0, n)
			for i := 0; i < n; i++ {
				elems = append(elems, decodeElem(st.cur, f.Type))
			}
			st.out.Fields[f.Name] = elems
			return nil
		}, nil

	case StrategyLenSource:
		return func(st *decState) error {
			st.lens[f.Name] = int(decodeUint(st.cur, f.Type.Width))
			return nil
		}, nil

	case StrategyLenArray:
		return func(st *decState) error {
			n := st.lens[f.LenField]
			// An attacker-controlled count never allocates more than
			// the bytes actually present.
			if n*f.Type.Width > st.cur.Remaining() {
				st.cur.Fail()
				return nil
			}
			if f.Type.HasArrayHelper() {
				st.out.Fields[f.Name] = st.cur.Bytes(n)
				return nil
			}
			elems := make([]any, 0, n)
			for i := 0; i < n; i++ {
				elems = append(elems, decodeElem(st.cur, f.Type))
			}
			st.out.Fields[f.Name] = elems
			return nil
		}, nil

	case StrategyOptional:
		return func(st *decState) error {
			switch st.cur.U8() {
			case 0:
			case 1:
				st.out.Fields[f.Name] = decodeElem(st.cur, f.Type)
			default:
				st.cur.Fail()
			}
			return nil
		}, nil

	case StrategyTlv:
		tc := c.tlvs[f.Tlv]
		if tc == nil {
			return nil, fmt.Errorf(
				"codec: %s.%s: container %q not compiled",
				m.Name, f.Name, f.Tlv,
			)
		}
		return func(st *decState) error {
			n := st.lens[f.LenField]
			if n > st.cur.Remaining() {
				st.cur.Fail()
				return nil
			}
			span := st.cur.Bytes(n)
			if span == nil {
				return nil
			}
			tlv, err := tc.Decode(span)
			if err != nil {
				return err
			}
			st.out.Fields[f.Name] = tlv
			return nil
		}, nil
	}
	return nil, fmt.Errorf("codec: %s.%s: unhandled strategy", m.Name, f.Name)
}

func decodeElem(cur *wire.Cursor, t schema.TypeSpec) any {
	switch t.Kind {
	case schema.KindBool:
		return cur.Bool()
	case schema.KindUint, schema.KindEnum:
		return decodeUint(cur, t.Width)
	case schema.KindBlob:
		if t.Assignable() {
			return cur.U64()
		}
		return cur.Bytes(t.Width)
	}
	cur.Fail()
	return nil
}

func decodeUint(cur *wire.Cursor, width int) uint64 {
	switch width {
	case 1:
		return uint64(cur.U8())
	case 2:
		return uint64(cur.U16())
	case 4:
		return uint64(cur.U32())
	case 8:
		return cur.U64()
	}
	cur.Fail()
	return 0
}
