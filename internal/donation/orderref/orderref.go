// Package orderref generates donation order references. The format is an
// opaque simulator token, deliberately distinguishable from a real payment
// gateway identifier.
package orderref

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Prefix marks references as simulator-issued.
const Prefix = "TXN_SIM_"

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix   = 9
)

// Generate returns a new order reference: the simulator prefix plus nine
// crypto-random base36 characters. 36^9 values keep collisions implausible for
// the ledger's lifetime; the store's unique constraint backstops the rest.
func Generate() (string, error) {
	buf := make([]byte, suffix)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not generate order reference: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return Prefix + string(buf), nil
}
