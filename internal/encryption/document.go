package encryption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
)

// DocumentEncryptionType marks a document sealed with its verification URL key.
const DocumentEncryptionType = "OPEN-ATTESTATION-TYPE-1"

// DocumentKeySize is the length of the random per-document key carried in the verification URL.
const DocumentKeySize = 32

// verificationURLField is the pass field holding the verification URL.
const verificationURLField = "verificationUrl"

// EncryptedDocument is a signed pass sealed with its document key. The key itself is not included.
type EncryptedDocument struct {
	CipherText string `json:"cipherText"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
	Type       string `json:"type"`
}

// Upload is an encrypted pass ready for the blob store.
type Upload struct {
	// StorageKey is the blob key: the verification URI path without its leading "/".
	StorageKey string

	// TargetHash identifies the pass (0x-prefixed).
	TargetHash string

	Envelope *Envelope
}

// VerificationLink is the content of a pass verification URL.
type VerificationLink struct {
	// URI is where the encrypted pass is stored.
	URI string

	// Key is the hex encoded document key from the URL fragment.
	Key string
}

type linkQuery struct {
	Type    string      `json:"type"`
	Payload linkPayload `json:"payload"`
}

type linkPayload struct {
	URI              string   `json:"uri"`
	PermittedActions []string `json:"permittedActions,omitempty"`
	Redirect         string   `json:"redirect,omitempty"`
}

type linkAnchor struct {
	Key string `json:"key"`
}

// NewDocumentKey returns a random hex document key.
func NewDocumentKey() (string, error) {
	b, err := crypto.RandomBytes(DocumentKeySize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// BuildVerificationURL returns base?q={"type":"DOCUMENT","payload":{"uri":...}}#{"key":...}.
// redirect may be empty.
func BuildVerificationURL(base, uri, key, redirect string) (string, error) {
	if _, err := url.ParseRequestURI(uri); err != nil {
		return "", WrapVerificationURLError(err, "invalid document uri")
	}
	if _, err := decodeDocumentKey(key); err != nil {
		return "", err
	}

	q, err := json.Marshal(linkQuery{
		Type: "DOCUMENT",
		Payload: linkPayload{
			URI:              uri,
			PermittedActions: []string{"VIEW", "STORE"},
			Redirect:         redirect,
		},
	})
	if err != nil {
		return "", WrapVerificationURLError(err, "failed to encode query")
	}
	anchor, err := json.Marshal(linkAnchor{Key: key})
	if err != nil {
		return "", WrapVerificationURLError(err, "failed to encode anchor")
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" {
		return "", NewVerificationURLError(fmt.Sprintf("invalid verification base url %q", base))
	}
	u.RawQuery = url.Values{"q": []string{string(q)}}.Encode()
	u.Fragment = string(anchor)

	return u.String(), nil
}

// ParseVerificationURL extracts the document uri and key from a verification URL.
// The URL may be percent-encoded as a whole.
func ParseVerificationURL(raw string) (*VerificationLink, error) {
	if !strings.Contains(raw, "://") {
		decoded, err := url.QueryUnescape(raw)
		if err != nil {
			return nil, WrapVerificationURLError(err, "verification url is not decodable")
		}
		raw = decoded
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, WrapVerificationURLError(err, "invalid verification url")
	}

	q := u.Query().Get("q")
	if q == "" {
		return nil, NewVerificationURLError("verification url has no q parameter")
	}
	var query linkQuery
	if err := json.Unmarshal([]byte(q), &query); err != nil {
		return nil, WrapVerificationURLError(err, "verification url q parameter is not valid JSON")
	}
	if query.Payload.URI == "" {
		return nil, NewVerificationURLError("verification url has no payload uri")
	}

	var anchor linkAnchor
	if u.Fragment == "" {
		return nil, NewVerificationURLError("verification url has no key fragment")
	}
	if err := json.Unmarshal([]byte(u.Fragment), &anchor); err != nil {
		return nil, WrapVerificationURLError(err, "verification url fragment is not valid JSON")
	}
	if _, err := decodeDocumentKey(anchor.Key); err != nil {
		return nil, err
	}

	return &VerificationLink{URI: query.Payload.URI, Key: anchor.Key}, nil
}

// StorageKey returns the blob key for the link: the uri path without its leading "/".
func (l *VerificationLink) StorageKey() (string, error) {
	u, err := url.Parse(l.URI)
	if err != nil {
		return "", WrapVerificationURLError(err, "invalid document uri")
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", NewVerificationURLError(fmt.Sprintf("document uri %q has no path", l.URI))
	}
	return key, nil
}

// LinkFromDocument reads and parses the verification URL of a signed pass.
func LinkFromDocument(signed *document.SignedWrappedDocument) (*VerificationLink, error) {
	if signed == nil {
		return nil, NewVerificationURLError("document is nil")
	}
	data, err := document.Unsalt(signed.Data)
	if err != nil {
		return nil, err
	}
	raw, ok := data[verificationURLField].(string)
	if !ok || raw == "" {
		return nil, NewVerificationURLError("document has no verificationUrl")
	}
	return ParseVerificationURL(raw)
}

// EncryptDocument seals signed with the key from its verification URL, wraps the key-less result in a
// password envelope and returns it with its storage key.
func EncryptDocument(ctx context.Context, signed *document.SignedWrappedDocument, password string, params crypto.ScryptParams) (*Upload, error) {
	link, err := LinkFromDocument(signed)
	if err != nil {
		return nil, err
	}
	storageKey, err := link.StorageKey()
	if err != nil {
		return nil, err
	}
	key, err := decodeDocumentKey(link.Key)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(signed)
	if err != nil {
		return nil, WrapMalformedEnvelopeError(err, "failed to serialize signed document")
	}

	result, err := crypto.Encrypt(key, plaintext, envelopeCipher)
	if err != nil {
		return nil, err
	}
	sealed, ok := result.(crypto.AEADResult)
	if !ok {
		return nil, NewMalformedEnvelopeError("document cipher did not produce an authentication tag")
	}

	inner, err := json.Marshal(EncryptedDocument{
		CipherText: sealed.CipherText,
		IV:         sealed.IV,
		Tag:        sealed.Tag,
		Type:       DocumentEncryptionType,
	})
	if err != nil {
		return nil, WrapMalformedEnvelopeError(err, "failed to serialize encrypted document")
	}

	env, err := EncryptWithPassword(ctx, password, inner, params)
	if err != nil {
		return nil, err
	}

	return &Upload{
		StorageKey: storageKey,
		TargetHash: signed.CanonicalTargetHash(),
		Envelope:   env,
	}, nil
}

// DecryptDocument opens a password envelope produced by EncryptDocument and decrypts the pass
// with its hex document key.
func DecryptDocument(ctx context.Context, env *Envelope, password, documentKey string, params crypto.ScryptParams) (*document.SignedWrappedDocument, error) {
	key, err := decodeDocumentKey(documentKey)
	if err != nil {
		return nil, err
	}

	inner, err := DecryptWithPassword(ctx, password, env, params)
	if err != nil {
		return nil, err
	}

	var enc EncryptedDocument
	if err := json.Unmarshal(inner, &enc); err != nil {
		return nil, WrapMalformedEnvelopeError(err, "envelope does not hold an encrypted document")
	}
	if enc.Type != DocumentEncryptionType {
		return nil, NewMalformedEnvelopeError(fmt.Sprintf("unsupported encrypted document type %q", enc.Type))
	}

	plaintext, err := crypto.Decrypt(key, crypto.AEADResult{
		CipherText: enc.CipherText,
		IV:         enc.IV,
		Tag:        enc.Tag,
	}, envelopeCipher)
	if err != nil {
		return nil, err
	}

	var signed document.SignedWrappedDocument
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()
	if err := dec.Decode(&signed); err != nil {
		return nil, WrapMalformedEnvelopeError(err, "decrypted payload is not a signed document")
	}
	return &signed, nil
}

func decodeDocumentKey(key string) ([]byte, error) {
	b, err := hex.DecodeString(key)
	if err != nil {
		return nil, WrapVerificationURLError(err, "document key is not hex")
	}
	if len(b) != DocumentKeySize {
		return nil, NewVerificationURLError(fmt.Sprintf("document key must be %d bytes, got %d", DocumentKeySize, len(b)))
	}
	return b, nil
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
