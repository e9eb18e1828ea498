package crypto

// MaxDocumentSize is the default maximum allowed size for a raw pass document or an encrypted envelope.
// Files larger than this are rejected before parsing.
var MaxDocumentSize int64 = 10 * 1024 * 1024 // 10MB
