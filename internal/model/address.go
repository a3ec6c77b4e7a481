package model

import (
	"encoding/json"
	"strings"
)

// EmailAddress is a single mailbox address with an optional display name.
type EmailAddress struct {
	// Name is the display name, possibly empty.
	Name string `json:"name,omitempty"`

	// Address is the mailbox address. This is the only required field.
	Address string `json:"address"`
}

// String renders the address as "Name <addr>" or just the bare address
// when no display name is set.
func (a EmailAddress) String() string {
	if a.Name != "" {
		return a.Name + " <" + a.Address + ">"
	}
	return a.Address
}

// ParseAddressList decodes a serialized address list. The second return
// value reports whether the input was well-formed JSON.
func ParseAddressList(s string) ([]EmailAddress, bool) {
	if s == "" {
		return nil, true
	}
	var addrs []EmailAddress
	if err := json.Unmarshal([]byte(s), &addrs); err != nil {
		return nil, false
	}
	return addrs, true
}

// FormatAddressList renders a serialized address list for display,
// joining entries with ", ". Non-JSON or malformed input is returned
// unchanged; this function never fails.
func FormatAddressList(s string) string {
	addrs, ok := ParseAddressList(s)
	if !ok {
		return s
	}
	if len(addrs) == 0 {
		return s
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// EncodeAddressList serializes an address list for storage. A nil or
// empty list encodes to the empty string.
func EncodeAddressList(addrs []EmailAddress) string {
	if len(addrs) == 0 {
		return ""
	}
	b, err := json.Marshal(addrs)
	if err != nil {
		return ""
	}
	return string(b)
}
