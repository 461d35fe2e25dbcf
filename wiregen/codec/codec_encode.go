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

type encodeStep func(st *encState, v *Value) error

type encState struct {
	buf *wire.Buffer

	// Container payloads encoded ahead of their length-source field,
	// keyed by field name.
	tlv map[string][]byte
}

func (c *Codec) encodeStepFor(m *schema.MessageSpec, fp FieldPlan) (encodeStep, error) {
	f := fp.Field
	switch fp.Strategy {
	case StrategyPadding:
		n := f.Count
		return func(st *encState, v *Value) error {
			st.buf.Pad(n)
			return nil
		}, nil

	case StrategyScalar:
		return func(st *encState, v *Value) error {
			return encodeElem(st.buf, m, f, f.Type, v.Fields[f.Name])
		}, nil

	case StrategyBlob:
		return func(st *encState, v *Value) error {
			return encodeElem(st.buf, m, f, f.Type, v.Fields[f.Name])
		}, nil

	case StrategyBulkArray:
		n := f.Count
		return func(st *encState, v *Value) error {
			raw, ok := v.Fields[f.Name].([]byte)
			if !ok || len(raw) != n {
				return encodeErr(m, f, "need %d bytes", n)
			}
			st.buf.Bytes(raw)
			return nil
		}, nil

	case StrategyElemArray:
		n := f.Count
		return func(st *encState, v *Value) error {
			elems, ok := v.Fields[f.Name].([]any)
			if !ok || len(elems) != n {
				return encodeErr(m, f, "need %d elements", n)
			}
			for _, e := range elems {
				if err := encodeElem(st.buf, m, f, f.Type, e); err != nil {
					return err
				}
			}
			return nil
		}, nil

	case StrategyLenArray:
		return func(st *encState, v *Value) error {
			switch elems := v.Fields[f.Name].(type) {
			case nil:
				return nil
			case []byte:
				st.buf.Bytes(elems)
				return nil
			case []any:
				for _, e := range elems {
					if err := encodeElem(st.buf, m, f, f.Type, e); err != nil {
						return err
					}
				}
				return nil
			}
			return encodeErr(m, f, "need a []byte or []any payload")
		}, nil

	case StrategyLenSource:
		target := f.LenFor
		targetField := m.Field(target)
		return func(st *encState, v *Value) error {
			n, err := st.describedLength(c, m, targetField, v)
			if err != nil {
				return err
			}
			return encodeUint(st.buf, m, f, uint64(n))
		}, nil

	case StrategyOptional:
		return func(st *encState, v *Value) error {
			payload := v.Fields[f.Name]
			if payload == nil {
				st.buf.U8(0)
				return nil
			}
			st.buf.U8(1)
			return encodeElem(st.buf, m, f, f.Type, payload)
		}, nil

	case StrategyTlv:
		name := f.Name
		return func(st *encState, v *Value) error {
			raw, encoded := st.tlv[name]
			if !encoded {
				var err error
				raw, err = st.encodeContainer(c, m, f, v)
				if err != nil {
					return err
				}
			}
			st.buf.Bytes(raw)
			return nil
		}, nil
	}
	return nil, fmt.Errorf("codec: %s.%s: unhandled strategy", m.Name, f.Name)
}

// describedLength computes a length-source field's wire value: the byte
// length of a container span, or the element count of an array. Container
// spans are encoded here and stashed for the later field walk.
func (st *encState) describedLength(c *Codec, m *schema.MessageSpec, target *schema.FieldSpec, v *Value) (int, error) {
	if target == nil {
		return 0, nil
	}
	if target.IsTlv() {
		raw, err := st.encodeContainer(c, m, target, v)
		if err != nil {
			return 0, err
		}
		if st.tlv == nil {
			st.tlv = make(map[string][]byte)
		}
		st.tlv[target.Name] = raw
		return len(raw), nil
	}
	switch elems := v.Fields[target.Name].(type) {
	case nil:
		return 0, nil
	case []byte:
		return len(elems), nil
	case []any:
		return len(elems), nil
	}
	return 0, encodeErr(m, target, "need a []byte or []any payload")
}

func (st *encState) encodeContainer(c *Codec, m *schema.MessageSpec, f *schema.FieldSpec, v *Value) ([]byte, error) {
	tc := c.tlvs[f.Tlv]
	if tc == nil {
		return nil, encodeErr(m, f, "container %q not compiled", f.Tlv)
	}
	tlv, _ := v.Fields[f.Name].(*Tlv)
	return tc.Encode(tlv)
}

func encodeElem(buf *wire.Buffer, m *schema.MessageSpec, f *schema.FieldSpec, t schema.TypeSpec, payload any) error {
	switch t.Kind {
	case schema.KindBool:
		b, ok := payload.(bool)
		if !ok {
			return encodeErr(m, f, "need a bool payload")
		}
		buf.Bool(b)
		return nil
	case schema.KindUint, schema.KindEnum:
		n, ok := asUint64(payload)
		if !ok {
			return encodeErr(m, f, "need an integer payload")
		}
		return encodeUint(buf, m, f, n)
	case schema.KindBlob:
		if t.Assignable() {
			// Amount types ride as 64-bit integers.
			n, ok := asUint64(payload)
			if !ok {
				return encodeErr(m, f, "need an integer payload")
			}
			buf.U64(n)
			return nil
		}
		raw, ok := payload.([]byte)
		if !ok || len(raw) != t.Width {
			return encodeErr(m, f, "need %d bytes", t.Width)
		}
		buf.Bytes(raw)
		return nil
	}
	return encodeErr(m, f, "type %q is not encodable", t.Name)
}

func encodeUint(buf *wire.Buffer, m *schema.MessageSpec, f *schema.FieldSpec, n uint64) error {
	width := f.Type.Width
	if width < 8 {
		if max := uint64(1)<<(8*width) - 1; n > max {
			return encodeErr(m, f, "value %d overflows %s", n, f.Type.Name)
		}
	}
	switch width {
	case 1:
		buf.U8(uint8(n))
	case 2:
		buf.U16(uint16(n))
	case 4:
		buf.U32(uint32(n))
	case 8:
		buf.U64(n)
	default:
		return encodeErr(m, f, "unsupported integer width %d", width)
	}
	return nil
}

func asUint64(payload any) (uint64, bool) {
	switch n := payload.(type) {
	case uint64:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	}
	return 0, false
}

func encodeErr(m *schema.MessageSpec, f *schema.FieldSpec, format string, args ...any) error {
	prefix := fmt.Sprintf("codec: %s.%s: ", m.Name, f.Name)
	return fmt.Errorf(prefix+format, args...)
}
