// Package psbttest builds throwaway PSBTs for tests.
package psbttest

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var p2wpkhScript = append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0xab}, 20)...)

// NewUnsigned returns a base64 PSBT spending numInputs fake outpoints and the
// txid of its unsigned transaction.
func NewUnsigned(t testing.TB, numInputs int, amountSats int64) (string, string) {
	t.Helper()

	tx := wire.NewMsgTx(2)
	for i := 0; i < numInputs; i++ {
		hash := chainhash.Hash{byte(i + 1)}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&hash, uint32(i)), nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(amountSats, p2wpkhScript))

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		t.Fatalf("psbt.NewFromUnsignedTx: %v", err)
	}

	encoded, err := packet.B64Encode()
	if err != nil {
		t.Fatalf("B64Encode: %v", err)
	}

	return encoded, tx.TxHash().String()
}

// Sign attaches a placeholder final witness to the given inputs.
func Sign(t testing.TB, b64 string, inputs ...int) string {
	t.Helper()

	packet, err := psbt.NewFromRawBytes(bytes.NewReader([]byte(b64)), true)
	if err != nil {
		t.Fatalf("psbt.NewFromRawBytes: %v", err)
	}

	for _, idx := range inputs {
		packet.Inputs[idx].WitnessUtxo = wire.NewTxOut(1_000_000, p2wpkhScript)
		packet.Inputs[idx].FinalScriptWitness = []byte{0x02, 0x01, 0xaa, 0x01, 0xbb}
	}

	encoded, err := packet.B64Encode()
	if err != nil {
		t.Fatalf("B64Encode: %v", err)
	}

	return encoded
}
