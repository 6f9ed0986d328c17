package access

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidAddress = errors.New("wallet must be a 0x prefixed 20 byte hex address")
	ErrBadChecksum    = errors.New("wallet checksum mismatch")
)

// NormalizeWallet validates an EVM address and returns its EIP-55 checksum
// form. All-lowercase and all-uppercase input carries no checksum and is
// accepted as is; mixed case must match the checksum.
func NormalizeWallet(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if len(trimmed) != 42 || !strings.HasPrefix(trimmed, "0x") {
		return "", ErrInvalidAddress
	}
	body := trimmed[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrInvalidAddress
	}
	checksummed := ChecksumAddress(body)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && "0x"+body != checksummed {
		return "", ErrBadChecksum
	}
	return checksummed, nil
}

// ChecksumAddress applies EIP-55 casing to 40 hex digits, with or without
// the 0x prefix.
func ChecksumAddress(address string) string {
	lower := strings.ToLower(strings.TrimPrefix(address, "0x"))
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hash.Sum(nil)

	out := []byte(lower)
	for i, ch := range out {
		if ch < 'a' || ch > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = ch - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
