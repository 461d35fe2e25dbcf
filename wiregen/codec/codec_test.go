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

package codec_test

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/maxatome/go-testdeep/td"

	"github.com/grubles/lightning/internal/testutil"
	"github.com/grubles/lightning/wire"
	"github.com/grubles/lightning/wiregen/codec"
	"github.com/grubles/lightning/wiregen/compiler"
	"github.com/grubles/lightning/wiregen/records"
)

func compileCodec(t *testing.T, src string, opts ...compiler.CompileOption) *codec.Codec {
	t.Helper()
	recs, err := records.ParseString(src)
	testutil.AssertNoError(t, err)
	result := compiler.Compile(recs, opts...)
	for _, cerr := range result.Errors {
		t.Errorf("unexpected compile error: %v", cerr)
	}
	if result.Schema == nil {
		t.Fatal("compile returned no schema")
	}
	c, err := codec.New(result.Schema)
	testutil.AssertNoError(t, err)
	return c
}

const pingSrc = "" +
	"ping,18\n" +
	"ping,0,num_pong_bytes,2\n" +
	"ping,2,byteslen,2\n" +
	"ping,4,ignored,byteslen\n"

func TestEncodePing(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, pingSrc, compiler.WithSizeInference(true))

	raw, err := c.Encode(codec.NewValue("ping").
		Set("num_pong_bytes", 0).
		Set("ignored", []byte{}))
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t,
		[]byte{0x00, 0x12, 0x00, 0x00, 0x00, 0x00}, raw)

	// The length prefix is recomputed from the described field; any
	// value supplied for it is ignored.
	raw, err = c.Encode(codec.NewValue("ping").
		Set("num_pong_bytes", 1).
		Set("byteslen", 999).
		Set("ignored", []byte{0xaa, 0xbb, 0xcc}))
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t,
		[]byte{0x00, 0x12, 0x00, 0x01, 0x00, 0x03, 0xaa, 0xbb, 0xcc}, raw)
}

func TestDecodePing(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, pingSrc, compiler.WithSizeInference(true))

	v, err := c.Decode([]byte{0x00, 0x12, 0x00, 0x01, 0x00, 0x03, 0xaa, 0xbb, 0xcc})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "ping", v.Msg)
	td.Cmp(t, v.Fields, map[string]any{
		"num_pong_bytes": uint64(1),
		"ignored":        []byte{0xaa, 0xbb, 0xcc},
	})
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, pingSrc, compiler.WithSizeInference(true))
	valid := []byte{0x00, 0x12, 0x00, 0x01, 0x00, 0x03, 0xaa, 0xbb, 0xcc}
	mc := c.Message("ping")

	// Every proper prefix fails; the poisoned cursor turns any overrun
	// into one truncation error at the end.
	for n := 2; n < len(valid); n++ {
		_, err := mc.Decode(valid[:n])
		testutil.ExpectErrorIs(t, err, wire.ErrTruncated)
	}
}

func TestDecodeTrailingBytesTolerated(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, pingSrc, compiler.WithSizeInference(true))
	raw := []byte{0x00, 0x12, 0x00, 0x00, 0x00, 0x00, 0xde, 0xad}

	v, err := c.Decode(raw)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint64(0), v.Fields["num_pong_bytes"].(uint64))
}

func TestDecodeWrongDiscriminant(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, pingSrc, compiler.WithSizeInference(true))

	_, err := c.Decode([]byte{0x00, 0x13, 0x00, 0x00, 0x00, 0x00})
	testutil.ExpectErrorIs(t, err, wire.ErrTypeMismatch)

	_, err = c.Message("ping").Decode([]byte{0x00, 0x13, 0x00, 0x00, 0x00, 0x00})
	testutil.ExpectErrorIs(t, err, wire.ErrTypeMismatch)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, ""+
		"query,60000\n"+
		"query,0,my_channel_id,32\n"+
		"query,32,amount_msat,8\n"+
		"query,40,num_keys,2\n"+
		"query,42,keys,num_keys*33\n"+
		"query,108,active,1\n",
		compiler.WithSizeInference(true),
	)

	keyA := bytes.Repeat([]byte{0x02}, 33)
	keyB := bytes.Repeat([]byte{0x03}, 33)
	in := codec.NewValue("query").
		Set("my_channel_id", bytes.Repeat([]byte{0x11}, 32)).
		Set("amount_msat", uint64(100_000)).
		Set("keys", []any{keyA, keyB}).
		Set("active", uint64(1))

	raw, err := c.Encode(in)
	testutil.AssertNoError(t, err)
	out, err := c.Decode(raw)
	testutil.AssertNoError(t, err)

	td.Cmp(t, out.Fields, map[string]any{
		"my_channel_id": bytes.Repeat([]byte{0x11}, 32),
		"amount_msat":   uint64(100_000),
		"keys":          []any{keyA, keyB},
		"active":        uint64(1),
	})
}

func TestOptionalRoundTrip(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, ""+
		"query,60000\n"+
		"query,0,flags,u32\n"+
		"query,4,extra,?u64\n")

	raw, err := c.Encode(codec.NewValue("query").Set("flags", 7))
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t,
		[]byte{0xea, 0x60, 0x00, 0x00, 0x00, 0x07, 0x00}, raw)

	v, err := c.Decode(raw)
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, v.Field("extra") == nil)

	raw, err = c.Encode(codec.NewValue("query").
		Set("flags", 7).
		Set("extra", uint64(9)))
	testutil.AssertNoError(t, err)
	v, err = c.Decode(raw)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint64(9), v.Field("extra").(uint64))
}

func TestOptionalBadPresenceByte(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, ""+
		"query,60000\n"+
		"query,0,extra,?u8\n")

	_, err := c.Decode([]byte{0xea, 0x60, 0x02, 0x09})
	testutil.ExpectErrorIs(t, err, wire.ErrTruncated)
}

func TestFixedArrayAndPadding(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, ""+
		"query,60000\n"+
		"query,0,cookie,4*u8\n"+
		"query,4,pad,2*pad\n"+
		"query,6,tail,u8\n")

	raw, err := c.Encode(codec.NewValue("query").
		Set("cookie", []byte{1, 2, 3, 4}).
		Set("tail", 5))
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t,
		[]byte{0xea, 0x60, 1, 2, 3, 4, 0, 0, 5}, raw)

	v, err := c.Decode(raw)
	testutil.AssertNoError(t, err)
	td.Cmp(t, v.Fields, map[string]any{
		"cookie": []byte{1, 2, 3, 4},
		"tail":   uint64(5),
	})
}

const tlvSrc = "" +
	"reply,261\n" +
	"reply,0,tlvslen,2\n" +
	"reply,2,extension+,tlvslen\n"

var tlvIncludes = fstest.MapFS{
	"gen_extension_csv": &fstest.MapFile{Data: []byte("" +
		"checksums,1\n" +
		"checksums,0,crc32,4\n" +
		"timestamp,2\n" +
		"timestamp,0,seen,4\n")},
}

func TestTlvDecode(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, tlvSrc,
		compiler.WithSizeInference(true),
		compiler.WithIncludes(tlvIncludes),
	)

	// Only the tag-2 record present.
	v, err := c.Decode([]byte{
		0x01, 0x05, // discriminant
		0x00, 0x08, // container span length
		0x00, 0x02, 0x00, 0x04, // tag 2, length 4
		0x00, 0x00, 0x00, 0x2a,
	})
	testutil.AssertNoError(t, err)

	tlv := v.Field("extension").(*codec.Tlv)
	testutil.ExpectEq(t, 1, len(tlv.Records))
	testutil.ExpectTrue(t, tlv.Record("checksums") == nil)
	testutil.ExpectEq(t, uint64(42), tlv.Record("timestamp").Field("seen").(uint64))
}

func TestTlvUnknownTagSkipped(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, tlvSrc,
		compiler.WithSizeInference(true),
		compiler.WithIncludes(tlvIncludes),
	)

	v, err := c.Decode([]byte{
		0x01, 0x05,
		0x00, 0x0f,
		0x00, 0x03, 0x00, 0x03, 0xaa, 0xbb, 0xcc, // unknown tag 3
		0x00, 0x01, 0x00, 0x04, 0x00, 0x00, 0x00, 0x07, // checksums
	})
	testutil.AssertNoError(t, err)

	tlv := v.Field("extension").(*codec.Tlv)
	testutil.ExpectEq(t, 1, len(tlv.Records))
	testutil.ExpectEq(t, uint64(7), tlv.Record("checksums").Field("crc32").(uint64))
}

func TestTlvRoundTrip(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, tlvSrc,
		compiler.WithSizeInference(true),
		compiler.WithIncludes(tlvIncludes),
	)

	in := codec.NewValue("reply").Set("extension", &codec.Tlv{
		Records: []*codec.Value{
			codec.NewValue("timestamp").Set("seen", uint64(1700000000)),
			codec.NewValue("checksums").Set("crc32", uint64(99)),
		},
	})
	raw, err := c.Encode(in)
	testutil.AssertNoError(t, err)

	out, err := c.Decode(raw)
	testutil.AssertNoError(t, err)
	tlv := out.Field("extension").(*codec.Tlv)
	testutil.ExpectEq(t, 2, len(tlv.Records))

	// Encode emits records in container declaration order regardless of
	// input order.
	testutil.ExpectEq(t, "checksums", tlv.Records[0].Msg)
	testutil.ExpectEq(t, "timestamp", tlv.Records[1].Msg)
	testutil.ExpectEq(t, uint64(99), tlv.Record("checksums").Field("crc32").(uint64))
	testutil.ExpectEq(t, uint64(1700000000), tlv.Record("timestamp").Field("seen").(uint64))
}

func TestTlvRecordLengthMismatch(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, tlvSrc,
		compiler.WithSizeInference(true),
		compiler.WithIncludes(tlvIncludes),
	)

	// Record declares five bytes but crc32 only consumes four.
	_, err := c.Decode([]byte{
		0x01, 0x05,
		0x00, 0x09,
		0x00, 0x01, 0x00, 0x05,
		0x00, 0x00, 0x00, 0x07, 0xff,
	})
	testutil.ExpectErrorIs(t, err, wire.ErrLengthMismatch)

	// Record declares three bytes; crc32 overruns its span.
	_, err = c.Decode([]byte{
		0x01, 0x05,
		0x00, 0x07,
		0x00, 0x01, 0x00, 0x03,
		0x00, 0x00, 0x07,
	})
	testutil.ExpectErrorIs(t, err, wire.ErrTruncated)
}

func TestTlvTruncatedHeader(t *testing.T) {
	t.Parallel()

	c := compileCodec(t, tlvSrc,
		compiler.WithSizeInference(true),
		compiler.WithIncludes(tlvIncludes),
	)

	// Span ends in the middle of a record header.
	_, err := c.Decode([]byte{
		0x01, 0x05,
		0x00, 0x03,
		0x00, 0x01, 0x00,
	})
	testutil.ExpectErrorIs(t, err, wire.ErrTruncated)
}

func TestCodecRejectsExternalTypes(t *testing.T) {
	t.Parallel()

	recs, err := records.ParseString("" +
		"query,60000\n" +
		"query,0,tx,struct bitcoin_tx\n")
	testutil.AssertNoError(t, err)
	result := compiler.Compile(recs)
	testutil.ExpectEq(t, 0, len(result.Errors))

	_, err = codec.New(result.Schema)
	testutil.AssertError(t, err)
	testutil.ExpectContains(t, err.Error(), "bitcoin_tx")
}

func TestExtendedEnumRoundTrip(t *testing.T) {
	t.Parallel()

	cat, err := compiler.DefaultCatalog().Extend([]byte(`
types:
  - name: enum side
    kind: enum
    width: 2
`))
	testutil.AssertNoError(t, err)

	c := compileCodec(t, ""+
		"query,60000\n"+
		"query,0,side,enum side\n",
		compiler.WithCatalog(cat),
	)

	raw, err := c.Encode(codec.NewValue("query").Set("side", 5))
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, []byte{0xea, 0x60, 0x00, 0x05}, raw)

	out, err := c.Decode(raw)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint64(5), out.Fields["side"].(uint64))
}

func TestCodecRejectsExtendedStructTypes(t *testing.T) {
	t.Parallel()

	cat, err := compiler.DefaultCatalog().Extend([]byte(`
types:
  - name: struct onion_hop
    kind: struct
    width: 65
`))
	testutil.AssertNoError(t, err)

	recs, err := records.ParseString("" +
		"query,60000\n" +
		"query,0,hop,struct onion_hop\n")
	testutil.AssertNoError(t, err)
	result := compiler.Compile(recs, compiler.WithCatalog(cat))
	testutil.ExpectEq(t, 0, len(result.Errors))

	_, err = codec.New(result.Schema)
	testutil.AssertError(t, err)
	testutil.ExpectContains(t, err.Error(), "onion_hop")
}
