package common

import "github.com/nspcc-dev/neo-go/pkg/interop"

// ErrInvalidHash is thrown when a script hash argument has wrong length.
const ErrInvalidHash = "incorrect length of script hash"

// CheckHash160 panics with ErrInvalidHash if h is not a valid script hash.
func CheckHash160(h interop.Hash160) {
	if len(h) != interop.Hash160Len {
		panic(ErrInvalidHash)
	}
}
