package security

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// Signer signs outbound gateway request messages with the merchant
// private key (SHA256-RSA2048).
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Verifier checks inbound notification signatures against the gateway's
// platform public key.
type Verifier interface {
	Verify(message, signature []byte) error
}

// Decryptor opens the AES-256-GCM resource block of a notification.
// The ciphertext arrives base64-encoded with associated data and nonce
// alongside it in the envelope.
type Decryptor interface {
	Decrypt(associatedData, nonce []byte, ciphertextB64 string) ([]byte, error)
}

type cryptoService struct {
	aead   cipher.AEAD
	rsaPub *rsa.PublicKey
	rsaPri *rsa.PrivateKey // nil => verify/decrypt only
}

// NewCryptoService builds a Signer+Verifier+Decryptor from loaded
// material. Callers take the narrow interface they need.
func NewCryptoService(cm *CryptoMaterial) (*cryptoService, error) {
	if cm.RSAPub == nil {
		return nil, errors.New("rsa public key required")
	}
	block, err := aes.NewCipher(cm.APIv3Key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &cryptoService{aead: aead, rsaPub: cm.RSAPub, rsaPri: cm.RSAPri}, nil
}

func (cs *cryptoService) Sign(message []byte) ([]byte, error) {
	if cs.rsaPri == nil {
		return nil, errors.New("signing not configured (no RSA private key)")
	}
	sum := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, cs.rsaPri, crypto.SHA256, sum[:])
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

func (cs *cryptoService) Verify(message, signature []byte) error {
	sum := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(cs.rsaPub, crypto.SHA256, sum[:], signature); err != nil {
		return fmt.Errorf("rsa verify: %w", err)
	}
	return nil
}

func (cs *cryptoService) Decrypt(associatedData, nonce []byte, ciphertextB64 string) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != cs.aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", cs.aead.NonceSize(), len(nonce))
	}
	pt, err := cs.aead.Open(nil, nonce, ct, associatedData)
	if err != nil {
		return nil, fmt.Errorf("gcm open: %w", err)
	}
	return pt, nil
}
