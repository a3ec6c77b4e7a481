package model

import "testing"

func TestEmailAddressString(t *testing.T) {
	a := EmailAddress{Name: "Ada Lovelace", Address: "ada@example.com"}
	if got := a.String(); got != "Ada Lovelace <ada@example.com>" {
		t.Fatalf("unexpected rendering: %q", got)
	}

	bare := EmailAddress{Address: "ada@example.com"}
	if got := bare.String(); got != "ada@example.com" {
		t.Fatalf("unexpected bare rendering: %q", got)
	}
}

func TestParseAddressList(t *testing.T) {
	addrs, ok := ParseAddressList(`[{"name":"Ada","address":"ada@example.com"},{"address":"bob@example.com"}]`)
	if !ok {
		t.Fatalf("expected well-formed input to parse")
	}
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}
	if addrs[0].Name != "Ada" || addrs[1].Address != "bob@example.com" {
		t.Fatalf("unexpected addresses: %+v", addrs)
	}

	if addrs, ok := ParseAddressList(""); !ok || addrs != nil {
		t.Fatalf("empty input should parse to nil: %v %v", addrs, ok)
	}

	if _, ok := ParseAddressList("not json"); ok {
		t.Fatalf("malformed input should not report ok")
	}
}

func TestFormatAddressList(t *testing.T) {
	got := FormatAddressList(`[{"name":"Ada","address":"ada@example.com"},{"address":"bob@example.com"}]`)
	if got != "Ada <ada@example.com>, bob@example.com" {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestFormatAddressListSingleEntry(t *testing.T) {
	got := FormatAddressList(`[{"address":"a@b.com","name":"A"}]`)
	if got != "A <a@b.com>" {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestFormatAddressListMalformedUnchanged(t *testing.T) {
	for _, input := range []string{"not json", "{broken", "plain@example.com", "[]", ""} {
		if got := FormatAddressList(input); got != input {
			t.Fatalf("input %q should be returned unchanged, got %q", input, got)
		}
	}
}

func TestEncodeAddressListRoundTrip(t *testing.T) {
	in := []EmailAddress{{Name: "Ada", Address: "ada@example.com"}}
	encoded := EncodeAddressList(in)
	out, ok := ParseAddressList(encoded)
	if !ok || len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip failed: %q -> %+v", encoded, out)
	}

	if got := EncodeAddressList(nil); got != "" {
		t.Fatalf("nil list should encode empty, got %q", got)
	}
}
