// Package pass defines the immigration pass credential and its sample issuers.
package pass

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/encryption"
)

type Status string

const (
	StatusLive Status = "live"
	StatusDead Status = "dead"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Kind selects the sample pass variant.
type Kind string

const (
	KindLTVP Kind = "ltvp" // long term visit pass
	KindSTP  Kind = "stp"  // short term pass
)

// IdentityProofType is how a verifier ties the issuer to a domain.
type IdentityProofType string

const (
	IdentityProofDNSTxt IdentityProofType = "DNS-TXT"
	IdentityProofDNSDid IdentityProofType = "DNS-DID"
)

const (
	RevocationTypeStore  = "REVOCATION_STORE"
	TemplateTypeEmbedded = "EMBEDDED_RENDERER"
)

// Sandbox issuer settings.
const (
	IssuerName = "Immigration & Checkpoints Authority"

	DNSTxtLocation = "wet-red-chicken.sandbox.openattestation.com"
	DNSDidLocation = "catholic-beige-possum.sandbox.openattestation.com"

	DNSTxtDocumentStore = "0x8c9460deDCBe881ddaE1681c3aa48d6eEC723160"
	DNSDidDocumentStore = "0x259D6bb42F1070d8EE5778F1B88eB5D93AB6192f"

	WalletAddress = "0xC5f1FFfaAA0984c0dB6a82440b9885204eb3A482"
	DID           = "did:ethr:" + WalletAddress
	DIDPublicKey  = DID + "#controller"
)

type Recipient struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
	FIN          string `json:"fin"`
	DOB          string `json:"dob"`
	Sex          Sex    `json:"sex"`
	Nationality  string `json:"nationality"`
}

type IdentityProof struct {
	Type     IdentityProofType `json:"type"`
	Location string            `json:"location"`
	Key      string            `json:"key,omitempty"`
}

type Revocation struct {
	Type     string `json:"type"`
	Location string `json:"location,omitempty"`
}

type Issuer struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	DocumentStore string        `json:"documentStore,omitempty"`
	Revocation    *Revocation   `json:"revocation,omitempty"`
	IdentityProof IdentityProof `json:"identityProof"`
}

type Template struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Pass is the credential issued to a visitor.
type Pass struct {
	Name            string    `json:"name"`
	Status          Status    `json:"status"`
	IssuedOn        string    `json:"issuedOn"`
	ExpireOn        string    `json:"expireOn"`
	Recipient       Recipient `json:"recipient"`
	Issuers         []Issuer  `json:"issuers"`
	Template        Template  `json:"$template"`
	VerificationURL string    `json:"verificationUrl,omitempty"`
}

// IssuerParams describes an issuer. DocumentStore is used as the document store for DNS-TXT
// issuers and as the revocation store for DNS-DID issuers.
type IssuerParams struct {
	Type          IdentityProofType
	Name          string
	Location      string
	DocumentStore string
	ID            string
	Key           string
}

// NewIssuer builds a DNS-TXT issuer bound to a document store, or a DNS-DID issuer with a
// revocation store.
func NewIssuer(p IssuerParams) (Issuer, error) {
	if p.Name == "" || p.Location == "" {
		return Issuer{}, fmt.Errorf("issuer name and location are required")
	}
	switch p.Type {
	case IdentityProofDNSTxt:
		if p.DocumentStore == "" {
			return Issuer{}, fmt.Errorf("DNS-TXT issuer requires a document store")
		}
		return Issuer{
			Name:          p.Name,
			DocumentStore: p.DocumentStore,
			IdentityProof: IdentityProof{Type: IdentityProofDNSTxt, Location: p.Location},
		}, nil
	case IdentityProofDNSDid:
		if p.ID == "" || p.Key == "" {
			return Issuer{}, fmt.Errorf("DNS-DID issuer requires an id and key")
		}
		return Issuer{
			ID:            p.ID,
			Name:          p.Name,
			Revocation:    &Revocation{Type: RevocationTypeStore, Location: p.DocumentStore},
			IdentityProof: IdentityProof{Type: IdentityProofDNSDid, Location: p.Location, Key: p.Key},
		}, nil
	default:
		return Issuer{}, fmt.Errorf("unsupported identity proof type %q", p.Type)
	}
}

// SandboxIssuer returns the sandbox issuer for proofType.
func SandboxIssuer(proofType IdentityProofType) (Issuer, error) {
	if proofType == IdentityProofDNSTxt {
		return NewIssuer(IssuerParams{
			Type:          proofType,
			Name:          IssuerName,
			Location:      DNSTxtLocation,
			DocumentStore: DNSTxtDocumentStore,
		})
	}
	return NewIssuer(IssuerParams{
		Type:          proofType,
		Name:          IssuerName,
		Location:      DNSDidLocation,
		DocumentStore: DNSDidDocumentStore,
		ID:            DID,
		Key:           DIDPublicKey,
	})
}

// Sample returns the sample pass of kind issued by the sandbox issuer for proofType.
func Sample(proofType IdentityProofType, kind Kind) (*Pass, error) {
	issuer, err := SandboxIssuer(proofType)
	if err != nil {
		return nil, err
	}

	p := &Pass{
		Status:   StatusLive,
		IssuedOn: "2019-05-29T00:00:00+08:00",
		ExpireOn: "2025-05-29T00:00:00+08:00",
		Recipient: Recipient{
			FIN:         "L1234567J",
			DOB:         "2019-08-18",
			Sex:         SexMale,
			Nationality: "American",
		},
		Issuers: []Issuer{issuer},
		Template: Template{
			Name: strings.ToUpper(string(kind)),
			Type: TemplateTypeEmbedded,
			URL:  "http://localhost:3000",
		},
	}

	switch kind {
	case KindLTVP:
		p.Name = "Long Term Visit Pass"
		p.Recipient.Name = "Lebron"
	case KindSTP:
		p.Name = "Short Term Pass"
		p.Recipient.Name = "Davis"
		p.Recipient.FIN = "L3334444J"
	default:
		return nil, fmt.Errorf("unknown pass kind %q", kind)
	}
	return p, nil
}

// SetProfileImage embeds the image at path as base64.
func (p *Pass) SetProfileImage(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile image: %w", err)
	}
	p.Recipient.ProfileImage = base64.StdEncoding.EncodeToString(b)
	return nil
}

// AttachVerificationURL gives p a fresh document key and a verification URL pointing at
// storageBase/id. It returns the hex document key.
func (p *Pass) AttachVerificationURL(verifyBase, storageBase, id string) (string, error) {
	key, err := encryption.NewDocumentKey()
	if err != nil {
		return "", err
	}
	uri := strings.TrimSuffix(storageBase, "/") + "/" + id
	link, err := encryption.BuildVerificationURL(verifyBase, uri, key, "")
	if err != nil {
		return "", err
	}
	p.VerificationURL = link
	return key, nil
}

// RawDocument converts p to the generic document form used for hashing.
func (p *Pass) RawDocument() (document.RawDocument, error) {
	return document.Normalize(p)
}
