package toolpkg

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// Digest is a pinned archive checksum written as "<algorithm>:<hex>".
type Digest struct {
	Algorithm string
	Sum       []byte
}

func ParseDigest(raw string) (Digest, error) {
	algo, hexSum, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return Digest{}, fmt.Errorf("digest %q missing algorithm prefix", raw)
	}
	algo = strings.ToLower(algo)
	if algo != "sha256" && algo != "blake3" {
		return Digest{}, fmt.Errorf("digest algorithm %q unsupported", algo)
	}
	sum, err := hex.DecodeString(hexSum)
	if err != nil {
		return Digest{}, fmt.Errorf("parsing digest: %w", err)
	}
	if len(sum) != 32 {
		return Digest{}, fmt.Errorf("digest is %d bytes, want 32", len(sum))
	}
	return Digest{Algorithm: algo, Sum: sum}, nil
}

func (d Digest) String() string {
	return d.Algorithm + ":" + hex.EncodeToString(d.Sum)
}

// Verify streams the file at path through the digest's hash function.
func (d Digest) Verify(path string) error {
	got, err := HashFile(path, d.Algorithm)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, d.Sum) {
		return fmt.Errorf("digest mismatch: want %s got %s:%s", d, d.Algorithm, hex.EncodeToString(got))
	}
	return nil
}

// HashFile computes the named digest of the file at path.
func HashFile(path string, algorithm string) ([]byte, error) {
	var h hash.Hash
	switch algorithm {
	case "sha256":
		h = sha256.New()
	case "blake3":
		h = blake3.New()
	default:
		return nil, fmt.Errorf("digest algorithm %q unsupported", algorithm)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()
	if _, err := io.Copy(h, file); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
