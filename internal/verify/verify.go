// Package verify checks a signed pass the way a relying party would.
//
// Three fragments are produced: DOCUMENT_INTEGRITY (target hash and Merkle path recomputed from the
// salted data), DOCUMENT_STATUS (issued and not revoked in the registry) and ISSUER_IDENTITY
// (every proof verifies against a trusted issuer key). A pass is valid only when every fragment
// is VALID.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
	"github.com/information-sharing-networks/pass-issuer/internal/signing"
)

type FragmentType string

const (
	TypeDocumentIntegrity FragmentType = "DOCUMENT_INTEGRITY"
	TypeDocumentStatus    FragmentType = "DOCUMENT_STATUS"
	TypeIssuerIdentity    FragmentType = "ISSUER_IDENTITY"
)

type FragmentStatus string

const (
	StatusValid   FragmentStatus = "VALID"
	StatusInvalid FragmentStatus = "INVALID"
	StatusSkipped FragmentStatus = "SKIPPED"
	StatusError   FragmentStatus = "ERROR"
)

// Fragment is the outcome of one check.
type Fragment struct {
	Name   string         `json:"name"`
	Type   FragmentType   `json:"type"`
	Status FragmentStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
	Data   any            `json:"data,omitempty"`
}

// Report is the outcome of verifying one pass.
type Report struct {
	TargetHash string     `json:"targetHash"`
	Valid      bool       `json:"valid"`
	Fragments  []Fragment `json:"fragments"`
}

// Fragment returns the fragment of type t, if present.
func (r *Report) Fragment(t FragmentType) (Fragment, bool) {
	for _, f := range r.Fragments {
		if f.Type == t {
			return f, true
		}
	}
	return Fragment{}, false
}

// StatusReader reads registry state. *registry.Client implements it.
type StatusReader interface {
	Status(ctx context.Context, hashes ...string) ([]registry.HashStatus, error)
}

// IssuerLookup maps a key id to its registered issuer. *signing.KeyManager implements it.
type IssuerLookup interface {
	LookupIssuerByKeyID(ctx context.Context, keyID string) (*signing.Issuer, error)
}

// Verifier runs the checks. A nil status reader or key resolver skips the corresponding fragment.
type Verifier struct {
	status  StatusReader
	keys    signing.KeyResolver
	issuers IssuerLookup
	logger  *slog.Logger
}

// New creates a verifier. issuers may be nil, in which case proofs are only checked
// cryptographically.
func New(status StatusReader, keys signing.KeyResolver, issuers IssuerLookup, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{status: status, keys: keys, issuers: issuers, logger: logger}
}

// Verify runs every check on doc. An error is returned only when doc is nil; check
// failures are reported in the fragments.
func (v *Verifier) Verify(ctx context.Context, doc *document.SignedWrappedDocument) (*Report, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}

	report := &Report{TargetHash: doc.CanonicalTargetHash()}
	report.Fragments = []Fragment{
		v.integrity(doc),
		v.documentStatus(ctx, doc),
		v.issuerIdentity(ctx, doc),
	}

	report.Valid = true
	for _, f := range report.Fragments {
		if f.Status != StatusValid {
			report.Valid = false
		}
	}

	v.logger.Info("document verified",
		slog.String("target_hash", report.TargetHash),
		slog.Bool("valid", report.Valid))

	return report, nil
}

func (v *Verifier) integrity(doc *document.SignedWrappedDocument) Fragment {
	f := Fragment{Name: "OpenAttestationHash", Type: TypeDocumentIntegrity}
	if err := document.VerifyIntegrity(&doc.WrappedDocument); err != nil {
		f.Status = StatusInvalid
		f.Reason = err.Error()
		return f
	}
	f.Status = StatusValid
	return f
}

func (v *Verifier) documentStatus(ctx context.Context, doc *document.SignedWrappedDocument) Fragment {
	f := Fragment{Name: "DocumentStoreStatus", Type: TypeDocumentStatus}
	if v.status == nil {
		f.Status = StatusSkipped
		f.Reason = "no registry configured"
		return f
	}

	statuses, err := v.status.Status(ctx, doc.CanonicalTargetHash())
	if err != nil {
		f.Status = StatusError
		f.Reason = err.Error()
		return f
	}
	if len(statuses) != 1 {
		f.Status = StatusError
		f.Reason = fmt.Sprintf("registry returned %d statuses", len(statuses))
		return f
	}

	s := statuses[0]
	f.Data = s
	switch s.Status() {
	case registry.StatusIssued:
		f.Status = StatusValid
	case registry.StatusRevoked:
		f.Status = StatusInvalid
		f.Reason = "document has been revoked"
	default:
		f.Status = StatusInvalid
		f.Reason = "document has not been issued"
	}
	return f
}

type issuerData struct {
	Name     string `json:"name,omitempty"`
	Identity string `json:"identity"`
	KeyID    string `json:"kid"`
}

func (v *Verifier) issuerIdentity(ctx context.Context, doc *document.SignedWrappedDocument) Fragment {
	f := Fragment{Name: "IssuerSignature", Type: TypeIssuerIdentity}
	if v.keys == nil {
		f.Status = StatusSkipped
		f.Reason = "no issuer keys configured"
		return f
	}

	if err := signing.Verify(ctx, doc, v.keys); err != nil {
		f.Status = StatusInvalid
		if signing.HasCode(err, signing.ErrCodeConfiguration) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			f.Status = StatusError
		}
		f.Reason = err.Error()
		return f
	}

	identities := make([]issuerData, 0, len(doc.Proof))
	for _, proof := range doc.Proof {
		data := issuerData{
			Identity: signing.IdentityFromVerificationMethod(proof.VerificationMethod),
			KeyID:    signing.KeyIDFromVerificationMethod(proof.VerificationMethod),
		}

		if v.issuers != nil {
			issuer, err := v.issuers.LookupIssuerByKeyID(ctx, data.KeyID)
			if err != nil {
				f.Status = StatusInvalid
				f.Reason = fmt.Sprintf("key %s is not registered to an issuer: %v", data.KeyID, err)
				return f
			}
			if issuer.Identity != "" && issuer.Identity != data.Identity {
				f.Status = StatusInvalid
				f.Reason = fmt.Sprintf("proof identity %q does not match issuer %q identity %q", data.Identity, issuer.Name, issuer.Identity)
				return f
			}
			data.Name = issuer.Name
		}
		identities = append(identities, data)
	}

	f.Status = StatusValid
	f.Data = identities
	return f
}
