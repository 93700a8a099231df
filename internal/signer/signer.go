// Package signer signs repository metadata.
package signer

// Signer creates signatures for repository indexes
type Signer interface {
	// SignDetached creates an armored detached signature (for Packages.sig)
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the armored public key
	GetPublicKey() ([]byte, error)
}
