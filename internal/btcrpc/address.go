package btcrpc

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

func ValidateAddress(address string, params *chaincfg.Params) error {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return errors.Wrapf(err, "invalid bitcoin address %q", address)
	}

	if !addr.IsForNet(params) {
		return fmt.Errorf("address %q is not for %s", address, params.Name)
	}

	return nil
}

// ValidatePublicKey accepts compressed, uncompressed and x-only (taproot) keys.
func ValidatePublicKey(pubKeyHex string) error {
	raw, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return errors.Wrap(err, "public key is not hex")
	}

	if len(raw) == 32 {
		raw = append([]byte{0x02}, raw...)
	}

	if _, err := secp256k1.ParsePubKey(raw); err != nil {
		return errors.Wrap(err, "invalid public key")
	}

	return nil
}
