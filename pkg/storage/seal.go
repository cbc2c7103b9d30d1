package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// NonceSize is the size of the nonce used for encryption
	NonceSize = 24
	// KeySize is the size of the encryption key
	KeySize = 32

	keySalt = "facewatch-gallery-v1"
)

// ErrEncryption is returned when sealing or opening fails.
var ErrEncryption = errors.New("encryption error")

// Sealer encrypts precomputed embeddings at rest with NaCl secretbox.
type Sealer struct {
	key [KeySize]byte
}

// NewSealer derives a key from passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrEncryption)
	}
	s := &Sealer{}
	s.key = sha256.Sum256([]byte(keySalt + passphrase))
	return s, nil
}

// Seal encrypts plaintext, prefixing the random nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, ErrEncryption
	}

	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[NonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrEncryption
	}
	return plaintext, nil
}

// SealDescriptor encodes d as little-endian float32s and seals it.
func (s *Sealer) SealDescriptor(d recognition.Descriptor) ([]byte, error) {
	buf := make([]byte, 4*recognition.DescriptorSize)
	for i, v := range d {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return s.Seal(buf)
}

// OpenDescriptor reverses SealDescriptor.
func (s *Sealer) OpenDescriptor(sealed []byte) (recognition.Descriptor, error) {
	var d recognition.Descriptor
	buf, err := s.Open(sealed)
	if err != nil {
		return d, err
	}
	if len(buf) != 4*recognition.DescriptorSize {
		return d, fmt.Errorf("%w: sealed descriptor has %d bytes", ErrEncryption, len(buf))
	}
	for i := range d {
		d[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return d, nil
}
