package vault

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("thisis32byteslongsecretkey123456")

func TestSealOpen(t *testing.T) {
	plaintext := []byte(`{"name":"Alice"}`)

	sealed, err := Seal(plaintext, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, string(plaintext), sealed)

	opened, err := Open(sealed, testKey)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealIsRandomized(t *testing.T) {
	a, err := Seal([]byte("same"), testKey)
	require.NoError(t, err)
	b, err := Seal([]byte("same"), testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongKey(t *testing.T) {
	sealed, err := Seal([]byte("Secret message"), testKey)
	require.NoError(t, err)

	_, err = Open(sealed, []byte("another32byteslongsecretkey65432"))
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestInvalidInputs(t *testing.T) {
	_, err := Seal([]byte("x"), []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Open("not-hex", testKey)
	assert.Error(t, err)

	_, err = Open("abcd", testKey)
	assert.Error(t, err)
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert()
	require.NoError(t, err)
	require.NotEmpty(t, cert.Certificate)

	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Contains(t, parsed.DNSNames, "localhost")
}
