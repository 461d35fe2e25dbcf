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

package compiler_test

import (
	"testing"
	"testing/fstest"

	"github.com/grubles/lightning/internal/testutil"
	"github.com/grubles/lightning/wiregen/compiler"
	"github.com/grubles/lightning/wiregen/records"
	"github.com/grubles/lightning/wiregen/schema"
)

func parse(t *testing.T, src string) []records.Record {
	t.Helper()
	recs, err := records.ParseString(src)
	testutil.AssertNoError(t, err)
	return recs
}

func compileOK(t *testing.T, src string, opts ...compiler.CompileOption) *schema.Schema {
	t.Helper()
	result := compiler.Compile(parse(t, src), opts...)
	for _, err := range result.Errors {
		t.Errorf("unexpected compile error: %v", err)
	}
	if result.Schema == nil {
		t.Fatal("compile returned no schema")
	}
	return result.Schema
}

func compileErrs(t *testing.T, src string, opts ...compiler.CompileOption) []*compiler.Error {
	t.Helper()
	result := compiler.Compile(parse(t, src), opts...)
	if len(result.Errors) == 0 {
		t.Fatal("expected compile errors, got none")
	}
	return result.Errors
}

func TestCompilePing(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"#comment for ping\n"+
		"ping,18\n"+
		"ping,0,num_pong_bytes,2\n"+
		"ping,2,byteslen,2\n"+
		"ping,4,ignored,byteslen\n",
		compiler.WithSizeInference(true),
	)

	testutil.ExpectEq(t, 1, len(s.Messages))
	m := s.Message("ping")
	if m == nil {
		t.Fatal("message 'ping' not compiled")
	}
	testutil.ExpectEq(t, "WIRE_PING", m.Tag.Name)
	testutil.ExpectEq(t, uint64(18), m.Tag.Value)
	testutil.ExpectSliceEq(t, []string{"comment for ping"}, m.Comments)
	testutil.ExpectTrue(t, m.HasVariable)
	testutil.ExpectEq(t, 3, len(m.Fields))

	numPong := m.Field("num_pong_bytes")
	testutil.ExpectEq(t, "u16", numPong.Type.Name)
	testutil.ExpectEq(t, schema.RoleFixed, numPong.Role)
	testutil.ExpectFalse(t, numPong.IsLenSource)

	bytesLen := m.Field("byteslen")
	testutil.ExpectTrue(t, bytesLen.IsLenSource)
	testutil.ExpectEq(t, "ignored", bytesLen.LenFor)

	ignored := m.Field("ignored")
	testutil.ExpectEq(t, schema.RoleLengthPrefixed, ignored.Role)
	testutil.ExpectEq(t, "byteslen", ignored.LenField)
	testutil.ExpectEq(t, "u8", ignored.Type.Name)
}

func TestCompileExplicitTypes(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"init,16\n"+
		"init,0,gflen,u16\n"+
		"init,2,globalfeatures,gflen*u8\n"+
		"init,4,chain,struct bitcoin_blkid\n"+
		"init,36,extra,struct mystery\n")

	m := s.Message("init")
	if m == nil {
		t.Fatal("message 'init' not compiled")
	}
	gflen := m.Field("gflen")
	testutil.ExpectEq(t, schema.KindUint, gflen.Type.Kind)
	testutil.ExpectTrue(t, gflen.IsLenSource)

	gf := m.Field("globalfeatures")
	testutil.ExpectEq(t, schema.RoleLengthPrefixed, gf.Role)
	testutil.ExpectEq(t, "gflen", gf.LenField)

	chain := m.Field("chain")
	testutil.ExpectEq(t, schema.KindBlob, chain.Type.Kind)
	testutil.ExpectEq(t, 32, chain.Type.Width)

	// Unknown aggregates resolve as opaque forward references.
	extra := m.Field("extra")
	testutil.ExpectEq(t, schema.KindStruct, extra.Type.Kind)
	testutil.ExpectEq(t, 0, extra.Type.Width)
	testutil.ExpectEq(t, "mystery", extra.Type.Base())
}

func TestInferenceTierPriority(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"update_fulfill_htlc,130\n"+
		"update_fulfill_htlc,0,payment_preimage,32\n"+
		"query,60000\n"+
		"query,0,my_channel_id,32\n"+
		"query,32,digest,32\n"+
		"query,64,node_key,33\n",
		compiler.WithSizeInference(true),
	)

	// An exact (message, field) override beats the size-32 default.
	preimage := s.Message("update_fulfill_htlc").Field("payment_preimage")
	testutil.ExpectEq(t, "struct preimage", preimage.Type.Name)

	// A name-fragment match beats the size-32 default.
	chanID := s.Message("query").Field("my_channel_id")
	testutil.ExpectEq(t, "struct channel_id", chanID.Type.Name)

	// No higher tier matches, so byte counts pick the defaults.
	testutil.ExpectEq(t, "struct sha256", s.Message("query").Field("digest").Type.Name)
	testutil.ExpectEq(t, "struct pubkey", s.Message("query").Field("node_key").Type.Name)
}

func TestInferredFixedArray(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"query,60000\n"+
		"query,0,keys,2*33\n"+
		"query,66,acks,4\n",
		compiler.WithSizeInference(true),
	)

	keys := s.Message("query").Field("keys")
	testutil.ExpectEq(t, schema.RoleFixedArray, keys.Role)
	testutil.ExpectEq(t, 2, keys.Count)
	testutil.ExpectEq(t, "struct pubkey", keys.Type.Name)

	acks := s.Message("query").Field("acks")
	testutil.ExpectEq(t, schema.RoleFixed, acks.Role)
	testutil.ExpectEq(t, "u32", acks.Type.Name)
}

func TestPaddingByName(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"query,60000\n"+
		"query,0,flag,1\n"+
		"query,1,pad,3\n",
		compiler.WithSizeInference(true),
	)

	pad := s.Message("query").Field("pad")
	testutil.ExpectEq(t, schema.RolePadding, pad.Role)
	testutil.ExpectEq(t, 3, pad.Count)
	testutil.ExpectTrue(t, pad.IsPadding())
}

func TestOptionalField(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"query,60000\n"+
		"query,0,flags,u32\n"+
		"query,4,extra,?u64\n")

	extra := s.Message("query").Field("extra")
	testutil.ExpectEq(t, schema.RoleOptional, extra.Role)
	testutil.ExpectTrue(t, s.Message("query").HasVariable)
}

func TestOptionVariants(t *testing.T) {
	t.Parallel()

	s := compileOK(t, ""+
		"channel_reestablish,136\n"+
		"channel_reestablish,0,channel_id,32\n"+
		"channel_reestablish,32,commitments_received,8\n"+
		"channel_reestablish,40,your_last_per_commitment_secret,32,option-data-loss-protect\n",
		compiler.WithSizeInference(true),
	)

	base := s.Message("channel_reestablish")
	testutil.ExpectEq(t, 2, len(base.Fields))

	v := s.Message("channel_reestablish_option_data_loss_protect")
	if v == nil {
		t.Fatal("variant not compiled")
	}
	testutil.ExpectEq(t, base.Tag.Value, v.Tag.Value)
	testutil.ExpectEq(t, 3, len(v.Fields))

	// The variant's extra field hits the override tier under its full name.
	secret := v.Field("your_last_per_commitment_secret")
	testutil.ExpectEq(t, "struct secret", secret.Type.Name)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		src   string
		infer bool
		code  uint32
	}{
		{
			name: "unknown message",
			src:  "query,0,flags,u32\n",
			code: 2001,
		},
		{
			name: "duplicate message",
			src:  "query,1\nquery,2\n",
			code: 2002,
		},
		{
			name: "duplicate discriminant",
			src:  "query,1\nother,1\n",
			code: 2003,
		},
		{
			name: "discriminant out of range",
			src:  "query,65536\n",
			code: 2004,
		},
		{
			name: "discriminant not a number",
			src:  "query,seven\n",
			code: 2004,
		},
		{
			name: "array count not literal or preceding field",
			src:  "query,1\nquery,0,data,foo*u8\n",
			code: 2012,
		},
		{
			name: "length variable is an array",
			src:  "query,1\nquery,0,lens,2*u16\nquery,4,data,lens*u8\n",
			code: 2008,
		},
		{
			name:  "length variable too narrow",
			src:   "query,1\nquery,0,len,1\nquery,1,data,len\n",
			infer: true,
			code:  2006,
		},
		{
			name: "length variable not an integer",
			src:  "query,1\nquery,0,len,bool\nquery,1,data,len*u8\n",
			code: 2007,
		},
		{
			name: "unknown type",
			src:  "query,1\nquery,0,x,frob\n",
			code: 2010,
		},
		{
			name:  "no inferable type for size",
			src:   "query,1\nquery,0,x,7\n",
			infer: true,
			code:  2011,
		},
		{
			name:  "size not a multiple of the inferred width",
			src:   "query,1\nquery,0,my_channel_id,33\n",
			infer: true,
			code:  2009,
		},
		{
			name:  "size not numeric in inference mode",
			src:   "query,1\nquery,0,x,abc\n",
			infer: true,
			code:  2013,
		},
		{
			name: "optional array",
			src:  "query,1\nquery,0,x,?2*u8\n",
			code: 2014,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var opts []compiler.CompileOption
			if tc.infer {
				opts = append(opts, compiler.WithSizeInference(true))
			}
			errs := compileErrs(t, tc.src, opts...)
			testutil.ExpectEq(t, tc.code, errs[0].Code())
			testutil.ExpectTrue(t, errs[0].Line() > 0)
		})
	}
}

func TestTlvContainer(t *testing.T) {
	t.Parallel()

	includes := fstest.MapFS{
		"gen_extension_csv": &fstest.MapFile{Data: []byte("" +
			"checksums,1\n" +
			"checksums,0,crc32,4\n" +
			"timestamp,2\n" +
			"timestamp,0,seen,4\n")},
	}

	s := compileOK(t, ""+
		"reply,261\n"+
		"reply,0,tlvslen,2\n"+
		"reply,2,extension+,tlvslen\n",
		compiler.WithSizeInference(true),
		compiler.WithIncludes(includes),
	)

	m := s.Message("reply")
	ext := m.Field("extension")
	testutil.ExpectTrue(t, ext.IsTlv())
	testutil.ExpectEq(t, "extension", ext.Tlv)
	testutil.ExpectEq(t, schema.RoleLengthPrefixed, ext.Role)

	c := s.Container("extension")
	if c == nil {
		t.Fatal("container 'extension' not compiled")
	}
	testutil.ExpectEq(t, 2, len(c.Records))

	crc := c.Record("checksums")
	testutil.ExpectEq(t, "TLV_CHECKSUMS", crc.Tag.Name)
	testutil.ExpectEq(t, uint64(1), crc.Tag.Value)
	testutil.ExpectTrue(t, crc.IsTlvRecord)
	testutil.ExpectEq(t, "u32", crc.Field("crc32").Type.Name)
}

func TestTlvContainerMemoized(t *testing.T) {
	t.Parallel()

	includes := fstest.MapFS{
		"gen_extension_csv": &fstest.MapFile{Data: []byte("" +
			"checksums,1\n" +
			"checksums,0,crc32,4\n")},
	}

	// Two messages referencing one container compile it once.
	s := compileOK(t, ""+
		"query,263\n"+
		"query,0,tlvslen,2\n"+
		"query,2,extension+,tlvslen\n"+
		"reply,264\n"+
		"reply,0,tlvslen,2\n"+
		"reply,2,extension+,tlvslen\n",
		compiler.WithSizeInference(true),
		compiler.WithIncludes(includes),
	)
	testutil.ExpectEq(t, 1, len(s.Containers))
}

func TestTlvContainerErrors(t *testing.T) {
	t.Parallel()

	t.Run("no include source", func(t *testing.T) {
		t.Parallel()
		errs := compileErrs(t, ""+
			"query,263\n"+
			"query,0,tlvslen,2\n"+
			"query,2,extension+,tlvslen\n",
			compiler.WithSizeInference(true),
		)
		testutil.ExpectEq(t, uint32(2019), errs[0].Code())
	})

	t.Run("missing container file", func(t *testing.T) {
		t.Parallel()
		errs := compileErrs(t, ""+
			"query,263\n"+
			"query,0,tlvslen,2\n"+
			"query,2,extension+,tlvslen\n",
			compiler.WithSizeInference(true),
			compiler.WithIncludes(fstest.MapFS{}),
		)
		testutil.ExpectEq(t, uint32(2018), errs[0].Code())
	})

	t.Run("nested tlv in record", func(t *testing.T) {
		t.Parallel()
		includes := fstest.MapFS{
			"gen_extension_csv": &fstest.MapFile{Data: []byte("" +
				"inner,1\n" +
				"inner,0,len,2\n" +
				"inner,2,deeper+,len\n")},
		}
		errs := compileErrs(t, ""+
			"query,263\n"+
			"query,0,tlvslen,2\n"+
			"query,2,extension+,tlvslen\n",
			compiler.WithSizeInference(true),
			compiler.WithIncludes(includes),
		)
		testutil.ExpectEq(t, uint32(2015), errs[0].Code())
	})

	t.Run("optional field in record", func(t *testing.T) {
		t.Parallel()
		includes := fstest.MapFS{
			"gen_extension_csv": &fstest.MapFile{Data: []byte("" +
				"inner,1\n" +
				"inner,0,maybe,?4\n")},
		}
		errs := compileErrs(t, ""+
			"query,263\n"+
			"query,0,tlvslen,2\n"+
			"query,2,extension+,tlvslen\n",
			compiler.WithSizeInference(true),
			compiler.WithIncludes(includes),
		)
		testutil.ExpectEq(t, uint32(2016), errs[0].Code())
	})

	t.Run("tlv field without length prefix", func(t *testing.T) {
		t.Parallel()
		includes := fstest.MapFS{
			"gen_extension_csv": &fstest.MapFile{Data: []byte("" +
				"inner,1\n" +
				"inner,0,x,4\n")},
		}
		errs := compileErrs(t, ""+
			"query,263\n"+
			"query,0,extension+,2\n",
			compiler.WithSizeInference(true),
			compiler.WithIncludes(includes),
		)
		testutil.ExpectEq(t, uint32(2017), errs[0].Code())
	})
}

func TestCatalogExtension(t *testing.T) {
	t.Parallel()

	cat, err := compiler.DefaultCatalog().Extend([]byte(`
types:
  - name: struct onion_hop
    kind: struct
    width: 65
partials:
  - match: hop
    type: struct onion_hop
`))
	testutil.AssertNoError(t, err)

	s := compileOK(t, ""+
		"query,60000\n"+
		"query,0,first_hop,65\n",
		compiler.WithSizeInference(true),
		compiler.WithCatalog(cat),
	)
	hop := s.Message("query").Field("first_hop")
	testutil.ExpectEq(t, "struct onion_hop", hop.Type.Name)
	testutil.ExpectEq(t, 65, hop.Type.Width)
}

func TestCatalogExtensionRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := compiler.DefaultCatalog().Extend([]byte(`
sizes:
  - size: 12
    type: struct nonexistent
`))
	testutil.AssertError(t, err)
	testutil.ExpectContains(t, err.Error(), "struct nonexistent")
}
