package crypto

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

var derivationTag = []byte("qst/derived-address")

// DeriveAddress computes a deterministic program-owned address from the
// supplied seeds. Each seed is length-prefixed so that ("ab","c") and
// ("a","bc") never collide.
func DeriveAddress(seeds ...[]byte) [20]byte {
	buf := make([]byte, 0, len(derivationTag)+32*len(seeds))
	buf = append(buf, derivationTag...)
	for _, seed := range seeds {
		buf = append(buf, byte(len(seed)))
		buf = append(buf, seed...)
	}
	var out [20]byte
	copy(out[:], crypto.Keccak256(buf)[12:])
	return out
}

// Sign produces a 65-byte recoverable secp256k1 signature over the 32-byte
// digest.
func (k *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if k == nil || k.PrivateKey == nil {
		return nil, errors.New("crypto: nil private key")
	}
	return crypto.Sign(digest, k.PrivateKey)
}

// RecoverAddress returns the identity that produced sig over digest.
func RecoverAddress(digest, sig []byte) ([20]byte, error) {
	var out [20]byte
	if len(sig) != crypto.SignatureLength {
		return out, fmt.Errorf("crypto: signature must be %d bytes", crypto.SignatureLength)
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return out, fmt.Errorf("crypto: recover signer: %w", err)
	}
	copy(out[:], crypto.PubkeyToAddress(*pub).Bytes())
	return out, nil
}
