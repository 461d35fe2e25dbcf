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

// TlvCodec encodes and decodes one extensible record container. Records
// ride as tag, length, payload; the tag is the record's discriminant and
// the payload carries no inner discriminant.
type TlvCodec struct {
	container *schema.TlvContainer
	byTag     map[uint64]*tlvRecordCodec
	byName    map[string]*tlvRecordCodec
}

type tlvRecordCodec struct {
	record *schema.MessageSpec
	enc    []encodeStep
	dec    []decodeStep
}

func newTlvCodec(container *schema.TlvContainer) (*TlvCodec, error) {
	tc := &TlvCodec{
		container: container,
		byTag:     make(map[uint64]*tlvRecordCodec),
		byName:    make(map[string]*tlvRecordCodec),
	}
	// Record fields never nest containers, so a codec without container
	// references suffices.
	inner := &Codec{tlvs: map[string]*TlvCodec{}}
	for _, record := range container.Records {
		rc := &tlvRecordCodec{record: record}
		plan := Plan(record)
		for _, fp := range plan.Fields {
			if fp.Strategy != StrategyPadding {
				if err := checkRepresentable(record, fp.Field); err != nil {
					return nil, err
				}
			}
			enc, err := inner.encodeStepFor(record, fp)
			if err != nil {
				return nil, err
			}
			dec, err := inner.decodeStepFor(record, fp)
			if err != nil {
				return nil, err
			}
			rc.enc = append(rc.enc, enc)
			rc.dec = append(rc.dec, dec)
		}
		tc.byTag[record.Tag.Value] = rc
		tc.byName[record.Name] = rc
	}
	return tc, nil
}

// Encode serializes the present records in container declaration order.
// A nil Tlv encodes as an empty span.
func (tc *TlvCodec) Encode(tlv *Tlv) ([]byte, error) {
	buf := &wire.Buffer{}
	if tlv == nil {
		return buf.Collect(), nil
	}
	for _, record := range tc.container.Records {
		v := tlv.Record(record.Name)
		if v == nil {
			continue
		}
		rc := tc.byName[record.Name]
		payload, err := rc.encode(v)
		if err != nil {
			return nil, err
		}
		if len(payload) > 0xffff {
			return nil, fmt.Errorf(
				"codec: %s.%s: record payload overflows its length prefix",
				tc.container.Name, record.Name,
			)
		}
		buf.U16(uint16(record.Tag.Value))
		buf.U16(uint16(len(payload)))
		buf.Bytes(payload)
	}
	return buf.Collect(), nil
}

// Decode walks a container span. Records with unknown tags are skipped;
// known records must consume exactly their declared length.
func (tc *TlvCodec) Decode(span []byte) (*Tlv, error) {
	tlv := &Tlv{}
	cur := wire.NewCursor(span)
	for cur.Remaining() > 0 {
		tag := cur.U16()
		length := int(cur.U16())
		if length > cur.Remaining() {
			cur.Fail()
		}
		if cur.Exhausted() {
			return nil, fmt.Errorf(
				"%w: %s record header",
				wire.ErrTruncated, tc.container.Name,
			)
		}
		payload := cur.Bytes(length)
		rc := tc.byTag[uint64(tag)]
		if rc == nil {
			continue
		}
		v, err := rc.decode(payload)
		if err != nil {
			return nil, err
		}
		tlv.Records = append(tlv.Records, v)
	}
	return tlv, nil
}

func (rc *tlvRecordCodec) encode(v *Value) ([]byte, error) {
	st := &encState{buf: &wire.Buffer{}}
	for _, step := range rc.enc {
		if err := step(st, v); err != nil {
			return nil, err
		}
	}
	return st.buf.Collect(), nil
}

func (rc *tlvRecordCodec) decode(payload []byte) (*Value, error) {
	st := &decState{
		cur:  wire.NewCursor(payload),
		lens: make(map[string]int),
		out:  NewValue(rc.record.Name),
	}
	for _, step := range rc.dec {
		if err := step(st); err != nil {
			return nil, err
		}
	}
	if st.cur.Exhausted() {
		return nil, fmt.Errorf("%w: %s", wire.ErrTruncated, rc.record.Name)
	}
	if st.cur.Remaining() != 0 {
		return nil, fmt.Errorf(
			"%w: %s left %d bytes unread",
			wire.ErrLengthMismatch, rc.record.Name, st.cur.Remaining(),
		)
	}
	return st.out, nil
}
