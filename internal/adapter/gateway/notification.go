package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aq2208/payment-api/internal/security"
)

var (
	// ErrSignatureInvalid: the notification failed platform signature
	// verification and must be answered as failure so the gateway
	// redelivers.
	ErrSignatureInvalid = errors.New("notification signature invalid")
	// ErrDecryptionFailed: envelope verified but the resource block did
	// not decrypt.
	ErrDecryptionFailed = errors.New("notification decryption failed")
)

// envelope is the outer notification body; the interesting payload sits
// AES-GCM encrypted inside resource.
type envelope struct {
	ID       string `json:"id"`
	Resource struct {
		Ciphertext     string `json:"ciphertext"`
		Nonce          string `json:"nonce"`
		AssociatedData string `json:"associated_data"`
	} `json:"resource"`
}

// NotificationOpener verifies a raw gateway notification against the
// platform public key and decrypts its resource block. It is the only
// door through which notification payloads enter the system.
type NotificationOpener struct {
	verifier security.Verifier
	dec      security.Decryptor
}

func NewNotificationOpener(verifier security.Verifier, dec security.Decryptor) *NotificationOpener {
	return &NotificationOpener{verifier: verifier, dec: dec}
}

// VerifyAndDecrypt checks the Wechatpay-* signature headers over the raw
// body, then opens the resource ciphertext. It returns the decrypted
// plaintext and the notification id (for logging).
func (o *NotificationOpener) VerifyAndDecrypt(header http.Header, body []byte) (plaintext []byte, notifyID string, err error) {
	ts := header.Get("Wechatpay-Timestamp")
	nonce := header.Get("Wechatpay-Nonce")
	sigB64 := header.Get("Wechatpay-Signature")
	if ts == "" || nonce == "" || sigB64 == "" {
		return nil, "", fmt.Errorf("%w: missing signature headers", ErrSignatureInvalid)
	}

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, "", fmt.Errorf("%w: undecodable signature", ErrSignatureInvalid)
	}

	// Signed message: timestamp\nnonce\nbody\n
	msg := strings.Join([]string{ts, nonce, string(body)}, "\n") + "\n"
	if err := o.verifier.Verify([]byte(msg), sig); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: undecodable envelope: %v", ErrDecryptionFailed, err)
	}

	plaintext, err = o.dec.Decrypt(
		[]byte(env.Resource.AssociatedData),
		[]byte(env.Resource.Nonce),
		env.Resource.Ciphertext,
	)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, env.ID, nil
}
