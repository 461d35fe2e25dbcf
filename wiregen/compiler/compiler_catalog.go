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
	"github.com/grubles/lightning/wiregen/schema"
)

// OverrideRule maps an exact (message, field) pair to a type name.
type OverrideRule struct {
	Message string
	Field   string
	Type    string
}

// PartialRule maps a field-name fragment to a type name. Rules are
// evaluated in order; the first fragment contained in the field name wins.
type PartialRule struct {
	Match string
	Type  string
}

// SizeRule maps an exact byte width to a default type name. Rules are
// evaluated in order.
type SizeRule struct {
	Size int
	Type string
}

// Catalog is the static registry of known types and the inference tables
// consulted when a field's type must be guessed from its name and size.
// Catalogs are immutable once built; the three inference tiers are
// priority-ordered rule lists, not maps, so resolution order is explicit.
type Catalog struct {
	types     map[string]schema.TypeSpec
	overrides []OverrideRule
	partials  []PartialRule
	sizes     []SizeRule
}

// DefaultCatalog returns the built-in catalog: primitive integer types,
// the known opaque aggregates and their widths, the externally-allocated
// aggregate list, and the three inference tiers.
func DefaultCatalog() *Catalog {
	cat := &Catalog{
		types: make(map[string]schema.TypeSpec),
	}

	put := func(name string, kind schema.Kind, width int) {
		cat.types[name] = schema.TypeSpec{Name: name, Kind: kind, Width: width}
	}
	put("u8", schema.KindUint, 1)
	put("u16", schema.KindUint, 2)
	put("u32", schema.KindUint, 4)
	put("u64", schema.KindUint, 8)
	put("bool", schema.KindBool, 1)
	put("pad", schema.KindPad, 1)
	put("struct channel_id", schema.KindBlob, 32)
	put("struct short_channel_id", schema.KindBlob, 8)
	put("struct ipv6", schema.KindBlob, 16)
	put("secp256k1_ecdsa_signature", schema.KindBlob, 64)
	put("struct preimage", schema.KindBlob, 32)
	put("struct pubkey", schema.KindBlob, 33)
	put("struct sha256", schema.KindBlob, 32)
	put("struct bitcoin_blkid", schema.KindBlob, 32)
	put("struct bitcoin_txid", schema.KindBlob, 32)
	put("struct secret", schema.KindBlob, 32)
	put("struct amount_msat", schema.KindBlob, 8)
	put("struct amount_sat", schema.KindBlob, 8)

	// Aggregates whose own layout is variable-length; their helpers
	// allocate from a caller-supplied context.
	for _, name := range []string{
		"peer_features",
		"gossip_getnodes_entry",
		"failed_htlc",
		"utxo",
		"bitcoin_tx",
		"wirestring",
	} {
		cat.types["struct "+name] = schema.TypeSpec{
			Name:       "struct " + name,
			Kind:       schema.KindStruct,
			NeedsAlloc: true,
		}
	}

	cat.overrides = []OverrideRule{
		{"update_fail_htlc", "reason", "u8"},
		{"node_announcement", "alias", "u8"},
		{"update_add_htlc", "onion_routing_packet", "u8"},
		{"update_fulfill_htlc", "payment_preimage", "struct preimage"},
		{"error", "data", "u8"},
		{"shutdown", "scriptpubkey", "u8"},
		{"node_announcement", "rgb_color", "u8"},
		{"node_announcement", "addresses", "u8"},
		{"node_announcement", "ipv6", "struct ipv6"},
		{"announcement_signatures", "short_channel_id", "struct short_channel_id"},
		{"channel_announcement", "short_channel_id", "struct short_channel_id"},
		{"channel_update", "short_channel_id", "struct short_channel_id"},
		{"revoke_and_ack", "per_commitment_secret", "struct secret"},
		{"channel_reestablish_option_data_loss_protect", "your_last_per_commitment_secret", "struct secret"},
		{"channel_update", "fee_base_msat", "u32"},
		{"final_incorrect_htlc_amount", "incoming_htlc_amt", "struct amount_msat"},
	}

	cat.partials = []PartialRule{
		{"signature", "secp256k1_ecdsa_signature"},
		{"features", "u8"},
		{"channel_id", "struct channel_id"},
		{"chain_hash", "struct bitcoin_blkid"},
		{"funding_txid", "struct bitcoin_txid"},
		{"pad", "pad"},
		{"msat", "struct amount_msat"},
		{"satoshis", "struct amount_sat"},
	}

	cat.sizes = []SizeRule{
		{33, "struct pubkey"},
		{32, "struct sha256"},
		{8, "u64"},
		{4, "u32"},
		{2, "u16"},
		{1, "u8"},
	}

	return cat
}

// Type returns the catalogued spec for a declared type name.
func (cat *Catalog) Type(name string) (schema.TypeSpec, bool) {
	t, ok := cat.types[name]
	return t, ok
}
