// Package apikeycodec encrypts and decrypts partner API key material at
// rest, replacing the source system's CryptoConverter (a Base64
// placeholder explicitly marked "replace with real encryption" in the
// original source). It uses golang.org/x/crypto/chacha20poly1305, an AEAD
// construction from the same x/crypto module the corpus already pulls in
// for bcrypt password hashing (SServet-fakturierung-backend), reusing a
// corpus-attested dependency rather than introducing a new one.
package apikeycodec
