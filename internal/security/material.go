package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/aq2208/payment-api/configs"
)

// CryptoMaterial bundles the merchant-side key material: the APIv3
// symmetric key for notification resource decryption, the platform
// public key for notification signature verification, and the merchant
// private key for request signing.
type CryptoMaterial struct {
	APIv3Key []byte
	RSAPub   *rsa.PublicKey
	RSAPri   *rsa.PrivateKey
}

func LoadCryptoMaterial(c configs.Config) (*CryptoMaterial, error) {
	if c.Crypto.APIv3KeyB64 == "" || c.Crypto.RSAPubPEM == "" {
		return nil, errors.New("missing crypto.apiv3_key_b64url or crypto.rsa_pub_pem")
	}

	key, err := base64.RawURLEncoding.DecodeString(c.Crypto.APIv3KeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode apiv3_key_b64url: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("apiv3 key must be 32 bytes, got %d", len(key))
	}

	pub, err := parseRSAPublicKeyFromPEM([]byte(c.Crypto.RSAPubPEM))
	if err != nil {
		return nil, fmt.Errorf("parse rsa pub pem: %w", err)
	}

	var pri *rsa.PrivateKey
	if c.Crypto.RSAPriPEM != "" {
		pri, err = parseRSAPrivateKeyFromPEM([]byte(c.Crypto.RSAPriPEM))
		if err != nil {
			return nil, fmt.Errorf("parse rsa pri pem: %w", err)
		}
	}

	return &CryptoMaterial{APIv3Key: key, RSAPub: pub, RSAPri: pri}, nil
}

func parseRSAPublicKeyFromPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}

func parseRSAPrivateKeyFromPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("PKCS8 key is not RSA")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
