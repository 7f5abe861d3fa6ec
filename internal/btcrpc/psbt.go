package btcrpc

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

func DecodePsbt(b64 string) (*psbt.Packet, error) {
	packet, err := psbt.NewFromRawBytes(strings.NewReader(b64), true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode psbt")
	}

	return packet, nil
}

// UnsignedTxID is the txid of the unsigned transaction, stable across signing.
func UnsignedTxID(packet *psbt.Packet) string {
	return packet.UnsignedTx.TxHash().String()
}

// ValidateSignInputs checks every index points at an input of the transaction.
func ValidateSignInputs(packet *psbt.Packet, signInputs []int) error {
	if len(signInputs) == 0 {
		return errors.New("no inputs to sign")
	}

	for _, idx := range signInputs {
		if idx < 0 || idx >= len(packet.UnsignedTx.TxIn) {
			return fmt.Errorf("sign input %d out of range (%d inputs)", idx, len(packet.UnsignedTx.TxIn))
		}
	}

	return nil
}

// VerifySignedPsbt makes sure the wallet returned the same transaction and
// signed every input it was asked to sign.
func VerifySignedPsbt(pkg model.SigningPackage, signedB64 string) error {
	packet, err := DecodePsbt(signedB64)
	if err != nil {
		return err
	}

	if txID := UnsignedTxID(packet); txID != pkg.UnsignedTxID {
		return fmt.Errorf("signed psbt is for transaction %s, expected %s", txID, pkg.UnsignedTxID)
	}

	if err := ValidateSignInputs(packet, pkg.SignInputs); err != nil {
		return err
	}

	for _, idx := range pkg.SignInputs {
		if !isInputSigned(packet.Inputs[idx]) {
			return fmt.Errorf("input %d is not signed", idx)
		}
	}

	return nil
}

func isInputSigned(in psbt.PInput) bool {
	return len(in.PartialSigs) > 0 ||
		len(in.FinalScriptWitness) > 0 ||
		len(in.FinalScriptSig) > 0 ||
		len(in.TaprootKeySpendSig) > 0 ||
		len(in.TaprootScriptSpendSig) > 0
}
