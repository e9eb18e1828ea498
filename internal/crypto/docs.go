// crypto package provides the cryptographic primitives used by the pass issuer.
//
// these are low level functions - for standard usage (wrapping, signing, encrypting passes) you will not need to call these functions directly
// See the document, signing and encryption packages for high level functions.
package crypto
