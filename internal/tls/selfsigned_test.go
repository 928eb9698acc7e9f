package tls

import (
	stdtls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "certs", "dev.crt")
	keyPath := filepath.Join(dir, "certs", "dev.key")
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, GenerateSelfSignedCert(certPath, keyPath, []string{"localhost", "127.0.0.1"}, now))

	_, err := stdtls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)

	data, err := os.ReadFile(certPath)
	require.NoError(t, err)
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.Equal(t, now.Add(DevCertValidity), cert.NotAfter.UTC())

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnsureDevCertificate(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "dev.crt")
	keyPath := filepath.Join(dir, "dev.key")

	created, err := EnsureDevCertificate(certPath, keyPath, nil)
	require.NoError(t, err)
	assert.True(t, created)

	before, err := os.ReadFile(certPath)
	require.NoError(t, err)

	created, err = EnsureDevCertificate(certPath, keyPath, nil)
	require.NoError(t, err)
	assert.False(t, created)

	after, err := os.ReadFile(certPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
