// Package blob stores encrypted pass envelopes under opaque keys.
//
// Keys come from the uri path of a pass verification URL. Every receipt carries a CIDv1
// (raw codec, sha2-256 multihash) of the stored bytes so callers can confirm later reads.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var (
	ErrNotFound    = errors.New("blob: not found")
	ErrInvalidKey  = errors.New("blob: invalid key")
	ErrImmutable   = errors.New("blob: key already holds different content")
	ErrCIDMismatch = errors.New("blob: content does not match cid")
)

// Store is a key-addressed blob store.
type Store interface {
	// Put stores content under key. Storing identical content twice is not an error.
	Put(ctx context.Context, key string, content []byte) (Receipt, error)

	// Get returns the content stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Receipt describes a stored blob.
type Receipt struct {
	Key      string `json:"key"`
	CID      string `json:"cid"`
	Size     int    `json:"size"`
	Location string `json:"location"`
}

// ContentID returns the CIDv1 (raw, sha2-256) of content.
func ContentID(content []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(content, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// VerifyContent checks content against a CID string from a receipt.
func VerifyContent(content []byte, id string) error {
	want, err := cid.Decode(id)
	if err != nil {
		return fmt.Errorf("invalid cid %q: %w", id, err)
	}
	got, err := ContentID(content)
	if err != nil {
		return err
	}
	if !got.Equals(want) {
		return ErrCIDMismatch
	}
	return nil
}

// CleanKey validates key and returns it in slash-separated relative form.
// Keys must not be empty, absolute or escape their root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
