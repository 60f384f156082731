package common

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var addressValidator = validator.New()

// NormalizeAddress lower-cases a 0x-prefixed 20 byte hex address.
// The second return value is false when the input is not a well formed address.
func NormalizeAddress(address string) (string, bool) {
	address = strings.TrimSpace(address)
	if err := addressValidator.Var(address, "required,eth_addr"); err != nil {
		return "", false
	}
	return strings.ToLower(address), true
}

// IsNullAddress reports whether address is missing, malformed or the zero address.
func IsNullAddress(address string) bool {
	normalized, ok := NormalizeAddress(address)
	return !ok || normalized == NullAddress
}

func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
