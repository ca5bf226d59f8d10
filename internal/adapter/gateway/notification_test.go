package gateway

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aq2208/payment-api/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sealNotification builds a signed, encrypted notification body the way
// the gateway does: AES-256-GCM resource inside a JSON envelope, with
// Wechatpay-* headers signed over timestamp\nnonce\nbody\n.
func sealNotification(t *testing.T, cm *security.CryptoMaterial, signer security.Signer, plaintext []byte) (http.Header, []byte) {
	t.Helper()

	block, err := aes.NewCipher(cm.APIv3Key)
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	gcmNonce := make([]byte, aead.NonceSize())
	_, err = rand.Read(gcmNonce)
	require.NoError(t, err)
	// Nonce travels as a string field in the envelope; keep it printable.
	for i := range gcmNonce {
		gcmNonce[i] = 'a' + gcmNonce[i]%26
	}

	const aad = "transaction"
	ct := aead.Seal(nil, gcmNonce, plaintext, []byte(aad))

	body, err := json.Marshal(map[string]any{
		"id":            "notify-0001",
		"event_type":    "TRANSACTION.SUCCESS",
		"resource_type": "encrypt-resource",
		"resource": map[string]any{
			"algorithm":       "AEAD_AES_256_GCM",
			"ciphertext":      base64.StdEncoding.EncodeToString(ct),
			"nonce":           string(gcmNonce),
			"associated_data": aad,
		},
	})
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	headerNonce := "HDRNONCE123456"
	msg := strings.Join([]string{ts, headerNonce, string(body)}, "\n") + "\n"
	sig, err := signer.Sign([]byte(msg))
	require.NoError(t, err)

	h := http.Header{}
	h.Set("Wechatpay-Timestamp", ts)
	h.Set("Wechatpay-Nonce", headerNonce)
	h.Set("Wechatpay-Signature", base64.StdEncoding.EncodeToString(sig))
	h.Set("Wechatpay-Serial", "platform-serial-1")
	return h, body
}

func newTestOpener(t *testing.T) (*NotificationOpener, *security.CryptoMaterial, security.Signer) {
	t.Helper()
	cm, signer := newTestCrypto(t)
	cs, err := security.NewCryptoService(cm)
	require.NoError(t, err)
	return NewNotificationOpener(cs, cs), cm, signer
}

func TestVerifyAndDecrypt_RoundTrip(t *testing.T) {
	opener, cm, signer := newTestOpener(t)
	want := []byte(`{"out_trade_no":"ORDER_1","trade_state":"SUCCESS"}`)
	header, body := sealNotification(t, cm, signer, want)

	got, notifyID, err := opener.VerifyAndDecrypt(header, body)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "notify-0001", notifyID)
}

func TestVerifyAndDecrypt_MissingHeaders(t *testing.T) {
	opener, cm, signer := newTestOpener(t)
	header, body := sealNotification(t, cm, signer, []byte(`{}`))
	header.Del("Wechatpay-Signature")

	_, _, err := opener.VerifyAndDecrypt(header, body)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyAndDecrypt_TamperedBody(t *testing.T) {
	opener, cm, signer := newTestOpener(t)
	header, body := sealNotification(t, cm, signer, []byte(`{"out_trade_no":"ORDER_1"}`))
	body = append(body, ' ')

	_, _, err := opener.VerifyAndDecrypt(header, body)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyAndDecrypt_BogusSignature(t *testing.T) {
	opener, cm, signer := newTestOpener(t)
	header, body := sealNotification(t, cm, signer, []byte(`{}`))
	header.Set("Wechatpay-Signature", base64.StdEncoding.EncodeToString([]byte("forged")))

	_, _, err := opener.VerifyAndDecrypt(header, body)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

// A valid signature from a different merchant's key must still fail:
// the body is resealed under foreign key material.
func TestVerifyAndDecrypt_WrongKeyMaterial(t *testing.T) {
	opener, _, _ := newTestOpener(t)
	otherCM, otherSigner := newTestCrypto(t)
	header, body := sealNotification(t, otherCM, otherSigner, []byte(`{}`))

	_, _, err := opener.VerifyAndDecrypt(header, body)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyAndDecrypt_CorruptCiphertext(t *testing.T) {
	opener, _, signer := newTestOpener(t)

	body, err := json.Marshal(map[string]any{
		"id": "notify-0002",
		"resource": map[string]any{
			"ciphertext":      base64.StdEncoding.EncodeToString([]byte("garbage")),
			"nonce":           "abcdefghijkl",
			"associated_data": "transaction",
		},
	})
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	msg := strings.Join([]string{ts, "NONCE", string(body)}, "\n") + "\n"
	sig, err := signer.Sign([]byte(msg))
	require.NoError(t, err)

	h := http.Header{}
	h.Set("Wechatpay-Timestamp", ts)
	h.Set("Wechatpay-Nonce", "NONCE")
	h.Set("Wechatpay-Signature", base64.StdEncoding.EncodeToString(sig))

	_, _, err = opener.VerifyAndDecrypt(h, body)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
