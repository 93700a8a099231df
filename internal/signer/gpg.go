package signer

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// ErrNoPrivateKey is returned for a key file holding only public keys
var ErrNoPrivateKey = errors.New("key has no private part")

// GPGSigner implements Signer with an OpenPGP private key
type GPGSigner struct {
	entity *openpgp.Entity
}

// NewGPGSigner loads the first key of an armored or binary key file,
// unlocking it with passphrase when it is encrypted
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	entities, err := readKeyRing(data)
	if err != nil {
		return nil, err
	}

	entity := entities[0]
	if entity.PrivateKey == nil {
		return nil, fmt.Errorf("%s: %w", keyPath, ErrNoPrivateKey)
	}

	if err := unlock(entity, []byte(passphrase)); err != nil {
		return nil, err
	}

	return &GPGSigner{entity: entity}, nil
}

func readKeyRing(data []byte) (openpgp.EntityList, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Not armored, try as binary key
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}

	return entities, nil
}

// unlock decrypts the primary key and subkeys of entity
func unlock(entity *openpgp.Entity, passphrase []byte) error {
	keys := []*packet.PrivateKey{entity.PrivateKey}
	for _, subkey := range entity.Subkeys {
		keys = append(keys, subkey.PrivateKey)
	}

	for _, key := range keys {
		if key == nil || !key.Encrypted {
			continue
		}
		if len(passphrase) == 0 {
			return fmt.Errorf("key is encrypted but no passphrase was given")
		}
		if err := key.Decrypt(passphrase); err != nil {
			return fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}

	return nil
}

// SignDetached creates an armored detached signature of data
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), &packet.Config{
		DefaultHash: crypto.SHA256,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create detached signature: %w", err)
	}

	return buf.Bytes(), nil
}

// GetPublicKey returns the public key in armored format
func (s *GPGSigner) GetPublicKey() ([]byte, error) {
	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}

	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Verify checks an armored detached signature against the public key
func (s *GPGSigner) Verify(data, signature []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{s.entity},
		bytes.NewReader(data),
		bytes.NewReader(signature),
		nil,
	)
	return err
}

