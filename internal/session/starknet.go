package session

import (
	"fmt"
	"math/big"
	"strings"
)

// starknetPrime is the field modulus 2^251 + 17*2^192 + 1.
var starknetPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Mul(big.NewInt(17), new(big.Int).Lsh(big.NewInt(1), 192)))
	return p.Add(p, big.NewInt(1))
}()

// normalizeStarknetAddress checks address is a 0x felt and returns it zero
// padded to 64 hex digits, lower case.
func normalizeStarknetAddress(address string) (string, error) {
	lower := strings.ToLower(address)
	hexPart := strings.TrimPrefix(lower, "0x")
	if !strings.HasPrefix(lower, "0x") || hexPart == "" || len(hexPart) > 64 {
		return "", fmt.Errorf("starknet address %q is not a 0x prefixed felt", address)
	}

	felt, ok := new(big.Int).SetString(hexPart, 16)
	if !ok {
		return "", fmt.Errorf("starknet address %q is not hex", address)
	}
	if felt.Sign() == 0 || felt.Cmp(starknetPrime) >= 0 {
		return "", fmt.Errorf("starknet address %q is outside the field", address)
	}

	return fmt.Sprintf("0x%064x", felt), nil
}
