// Package pipeline runs the issuance stages over a batch of passes:
// wrap, sign, then optionally encrypt and upload.
//
// Wrapping applies to the whole batch and fails it on the first error. Signing, encryption and
// upload report a result per document: a document that failed to sign is never encrypted, and a
// document whose encryption failed is never uploaded.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/information-sharing-networks/pass-issuer/internal/blob"
	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/encryption"
	"github.com/information-sharing-networks/pass-issuer/internal/signing"
)

// DefaultEncryptionConcurrency bounds concurrent scrypt derivations when no limit is configured.
const DefaultEncryptionConcurrency = 4

// Config holds the collaborators for a pipeline run.
type Config struct {
	Signer   signing.Signer
	Identity string

	// Password enables the encryption stage when non-empty.
	Password string
	Scrypt   crypto.ScryptParams

	// EncryptionConcurrency caps concurrent encryptions.
	EncryptionConcurrency int

	// Store receives encrypted envelopes. Nil skips the upload.
	Store blob.Store
}

// Pipeline issues batches of passes.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// ItemResult is the outcome for one document.
type ItemResult struct {
	Index      int    `json:"index"`
	TargetHash string `json:"targetHash"`

	Encrypted bool          `json:"encrypted"`
	Uploaded  bool          `json:"uploaded"`
	Receipt   *blob.Receipt `json:"receipt,omitempty"`

	// Error describes the failure of the signing, encryption or upload stage.
	Error string `json:"error,omitempty"`

	Signed *document.SignedWrappedDocument `json:"-"`
	Upload *encryption.Upload              `json:"-"`
	Err    error                           `json:"-"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	MerkleRoot string       `json:"merkleRoot"`
	Items      []ItemResult `json:"items"`
}

// Failed returns the number of documents whose signing, encryption or upload failed.
func (r *Result) Failed() int {
	n := 0
	for _, item := range r.Items {
		if item.Err != nil {
			n++
		}
	}
	return n
}

// Signed returns the documents that were signed, in input order.
func (r *Result) Signed() []*document.SignedWrappedDocument {
	out := make([]*document.SignedWrappedDocument, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Signed != nil {
			out = append(out, item.Signed)
		}
	}
	return out
}

// New validates cfg and creates a pipeline. A pipeline without a signer can only
// encrypt and upload documents that are already signed.
func New(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Password != "" {
		if err := cfg.Scrypt.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.EncryptionConcurrency <= 0 {
		cfg.EncryptionConcurrency = DefaultEncryptionConcurrency
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Run wraps and signs raws as one batch, then encrypts and uploads each signed document
// when a password is configured.
func (p *Pipeline) Run(ctx context.Context, raws []document.RawDocument) (*Result, error) {
	if p.cfg.Signer == nil {
		return nil, errors.New("signer is required")
	}

	wrapped, root, err := document.WrapDocuments(ctx, raws)
	if err != nil {
		return nil, err
	}
	p.logger.Info("documents wrapped",
		slog.Int("count", len(wrapped)),
		slog.String("merkle_root", root))

	signed, signErrs := signing.SignEach(ctx, wrapped, p.cfg.Signer, p.cfg.Identity)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{MerkleRoot: root, Items: make([]ItemResult, len(wrapped))}
	for i, w := range wrapped {
		item := &result.Items[i]
		item.Index = i
		item.TargetHash = w.CanonicalTargetHash()
		item.Signed = signed[i]
		if signErrs[i] != nil {
			item.fail(signErrs[i])
			p.logger.Warn("document signing failed",
				slog.Int("index", i),
				slog.String("target_hash", item.TargetHash),
				slog.String("error", signErrs[i].Error()))
		}
	}
	p.logger.Info("documents signed",
		slog.Int("count", len(wrapped)-result.Failed()),
		slog.Int("failed", result.Failed()),
		slog.String("algorithm", string(p.cfg.Signer.Algorithm())),
		slog.String("kid", p.cfg.Signer.KeyID()))

	if p.cfg.Password != "" {
		p.encryptItems(ctx, result.Items)
	}
	return result, nil
}

// EncryptAndUpload encrypts each signed document with the configured password and uploads the
// envelopes that were produced. Per-document failures are reported in the results.
func (p *Pipeline) EncryptAndUpload(ctx context.Context, signed []*document.SignedWrappedDocument) []ItemResult {
	items := make([]ItemResult, len(signed))
	for i, s := range signed {
		items[i] = ItemResult{Index: i, TargetHash: s.CanonicalTargetHash(), Signed: s}
	}
	p.encryptItems(ctx, items)
	return items
}

// encryptItems encrypts and uploads every item that was signed and has not failed.
func (p *Pipeline) encryptItems(ctx context.Context, items []ItemResult) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.EncryptionConcurrency)
	for i := range items {
		if items[i].Signed == nil || items[i].Err != nil {
			continue
		}
		g.Go(func() error {
			// failures are recorded on the item
			p.process(gctx, &items[i])
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) process(ctx context.Context, item *ItemResult) {
	upload, err := encryption.EncryptDocument(ctx, item.Signed, p.cfg.Password, p.cfg.Scrypt)
	if err != nil {
		item.fail(err)
		p.logger.Warn("document encryption failed",
			slog.Int("index", item.Index),
			slog.String("target_hash", item.TargetHash),
			slog.String("error", err.Error()))
		return
	}
	item.Encrypted = true
	item.Upload = upload

	if p.cfg.Store == nil {
		return
	}

	content, err := json.Marshal(upload.Envelope)
	if err != nil {
		item.fail(fmt.Errorf("failed to serialize envelope: %w", err))
		return
	}

	receipt, err := p.cfg.Store.Put(ctx, upload.StorageKey, content)
	if err != nil {
		item.fail(err)
		p.logger.Warn("envelope upload failed",
			slog.Int("index", item.Index),
			slog.String("key", upload.StorageKey),
			slog.String("error", err.Error()))
		return
	}
	item.Uploaded = true
	item.Receipt = &receipt

	p.logger.Debug("envelope uploaded",
		slog.String("key", receipt.Key),
		slog.String("cid", receipt.CID),
		slog.String("target_hash", item.TargetHash))
}

func (item *ItemResult) fail(err error) {
	item.Err = err
	item.Error = err.Error()
}
