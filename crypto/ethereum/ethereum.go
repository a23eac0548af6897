// Package ethereum provides cryptographic operations used by the node to
// sign and verify messages with Ethereum EOA keys. Identity derivation for
// anonymous voting starts from a signature produced here (or by the user's
// wallet, which follows the same personal-message encoding).
package ethereum

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/arbor-audio/arbor-node/util"
)

// SignatureLength is the size in bytes of an ECDSA signature with recovery id.
const SignatureLength = 65

// SignKeys is an ECDSA key pair for signing and verifying Ethereum messages.
type SignKeys struct {
	Public  *ecdsa.PublicKey
	Private *ecdsa.PrivateKey
}

// NewSignKeys creates an empty key pair.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate creates a fresh random key pair.
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = key
	k.Public = &key.PublicKey
	return nil
}

// AddHexKey imports a private key from its hexadecimal representation.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return err
	}
	k.Private = key
	k.Public = &key.PublicKey
	return nil
}

// HexString returns the hexadecimal representation of the compressed public
// key and the private key.
func (k *SignKeys) HexString() (string, string) {
	pub := fmt.Sprintf("%x", ethcrypto.CompressPubkey(k.Public))
	priv := fmt.Sprintf("%x", ethcrypto.FromECDSA(k.Private))
	return pub, priv
}

// PublicKey returns the compressed public key bytes.
func (k *SignKeys) PublicKey() []byte {
	return ethcrypto.CompressPubkey(k.Public)
}

// AddrFromPublicKey derives the Ethereum address from a compressed or
// uncompressed public key.
func AddrFromPublicKey(pub []byte) (common.Address, error) {
	key, err := ethcrypto.DecompressPubkey(pub)
	if err != nil {
		if key, err = ethcrypto.UnmarshalPubkey(pub); err != nil {
			return common.Address{}, fmt.Errorf("cannot decode public key: %w", err)
		}
	}
	return ethcrypto.PubkeyToAddress(*key), nil
}

// Address returns the Ethereum address derived from the public key.
func (k *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(*k.Public)
}

// AddressString returns the checksummed hex address.
func (k *SignKeys) AddressString() string {
	return k.Address().Hex()
}

// SignEthereum signs the message following the Ethereum personal-message
// convention (keccak256 over the "\x19Ethereum Signed Message" envelope).
func (k *SignKeys) SignEthereum(message []byte) ([]byte, error) {
	if k.Private == nil {
		return nil, fmt.Errorf("no private key available")
	}
	return ethcrypto.Sign(Hash(message), k.Private)
}

// Hash returns the hash of a message applying the Ethereum personal-message
// envelope, like eth_sign or MetaMask's signMessage do.
func Hash(message []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return ethcrypto.Keccak256([]byte(prefixed))
}

// HashRaw returns the plain keccak256 hash of data.
func HashRaw(data []byte) []byte {
	return ethcrypto.Keccak256(data)
}

// AddrFromSignature recovers the address which produced the signature over
// the given (unhashed) message.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("wrong signature length %d", len(signature))
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	// normalize the recovery id, wallets often return 27/28
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(Hash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether the signature over message was produced by the
// holder of this key pair.
func (k *SignKeys) Verify(message, signature []byte) (bool, error) {
	addr, err := AddrFromSignature(message, signature)
	if err != nil {
		return false, err
	}
	return addr == k.Address(), nil
}
