package document

import (
	"context"
	"encoding/hex"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/information-sharing-networks/pass-issuer/internal/merkle"
)

// WrapDocuments hashes every document and wraps the batch under a single Merkle root.
//
// Documents are hashed concurrently. Tree construction starts only once every target hash is known.
// The returned documents are in input order; the merkle root is hex without a 0x prefix.
func WrapDocuments(ctx context.Context, raws []RawDocument) ([]*WrappedDocument, string, error) {
	if len(raws) == 0 {
		return nil, "", NewEmptyBatchError("no documents to wrap")
	}

	hashed := make([]*HashedDocument, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, raw := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := Hash(raw)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			hashed[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	leaves := make([][]byte, len(hashed))
	for i, h := range hashed {
		b, err := hex.DecodeString(h.TargetHash)
		if err != nil {
			return nil, "", WrapMalformedDocumentError(err, "target hash is not hex")
		}
		leaves[i] = b
	}

	tree, err := merkle.Build(leaves)
	if err != nil {
		return nil, "", NewEmptyBatchError(err.Error())
	}
	root := hex.EncodeToString(tree.Root())

	wrapped := make([]*WrappedDocument, len(hashed))
	for i, h := range hashed {
		path, err := tree.Proof(i)
		if err != nil {
			return nil, "", fmt.Errorf("document %d: %w", i, err)
		}
		proof := make([]string, len(path))
		for j, p := range path {
			proof[j] = hex.EncodeToString(p)
		}
		wrapped[i] = &WrappedDocument{
			Version: SchemaVersion,
			Data:    h.Data,
			Signature: SignatureBlock{
				Type:       SignatureType,
				TargetHash: h.TargetHash,
				Proof:      proof,
				MerkleRoot: root,
			},
		}
	}

	return wrapped, root, nil
}

// WrapDocument wraps a single document. Its merkle root equals its target hash and its proof is empty.
func WrapDocument(ctx context.Context, raw RawDocument) (*WrappedDocument, error) {
	wrapped, _, err := WrapDocuments(ctx, []RawDocument{raw})
	if err != nil {
		return nil, err
	}
	return wrapped[0], nil
}

// VerifyIntegrity recomputes the target hash from the document's salted data and obfuscated digests
// and checks that the proof leads from the target hash to the merkle root.
func VerifyIntegrity(w *WrappedDocument) error {
	if w == nil {
		return NewMalformedDocumentError("document is nil")
	}
	if w.Signature.Type != SignatureType {
		return NewIntegrityError(fmt.Sprintf("unsupported signature type %q", w.Signature.Type))
	}

	digest, err := Digest(w.Data, w.ObfuscatedData())
	if err != nil {
		return err
	}
	if digest != w.Signature.TargetHash {
		return NewIntegrityError("document content does not match its target hash")
	}

	target, err := hex.DecodeString(w.Signature.TargetHash)
	if err != nil {
		return NewIntegrityError("target hash is not hex")
	}
	root, err := hex.DecodeString(w.Signature.MerkleRoot)
	if err != nil {
		return NewIntegrityError("merkle root is not hex")
	}
	proof := make([][]byte, len(w.Signature.Proof))
	for i, p := range w.Signature.Proof {
		b, err := hex.DecodeString(p)
		if err != nil {
			return NewIntegrityError(fmt.Sprintf("proof element %d is not hex", i))
		}
		proof[i] = b
	}

	if !merkle.Verify(target, proof, root) {
		return NewIntegrityError("proof does not lead to the merkle root")
	}
	return nil
}
