// Package fingerprint maps a Go type's declared identity to a 32-byte digest
// used to bind stored snapshots to the type they were saved as.
//
// The canonical name of a named type T is its fully-qualified identity,
// PkgPath + "." + Name (e.g. "github.com/helixsave/helix.settings").
// Unnamed types fall back to reflect.Type.String(). The digest is the
// SHA-256 of that canonical name.
//
// The canonical naming scheme is part of this implementation's stable
// on-disk contract: moving a type to a different package, renaming it, or
// renaming its module path changes the digest and therefore invalidates
// previously stored snapshots of that type. Fingerprints are an identity
// check, not a schema check, and are not portable across language runtimes.
package fingerprint

import (
	"crypto/sha256"
	"reflect"
)

// CanonicalName returns the stable textual identity of t that feeds the digest.
func CanonicalName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}

// OfType returns the SHA-256 digest of t's canonical name.
func OfType(t reflect.Type) [32]byte {
	return sha256.Sum256([]byte(CanonicalName(t)))
}

// Of returns the digest for the type parameter T without requiring a value.
func Of[T any]() [32]byte {
	return OfType(reflect.TypeOf((*T)(nil)).Elem())
}
