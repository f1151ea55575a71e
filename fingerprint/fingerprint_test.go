package fingerprint

import (
	"crypto/sha256"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct{ A int }

type sampleOther struct{ A int }

// The canonical naming scheme is part of the stored-data contract. If this
// test starts failing after a refactor, snapshots written by earlier builds
// will no longer load: that is a breaking change, not a test to update
// casually.
func TestCanonicalName_Pinned(t *testing.T) {
	require.Equal(t,
		"github.com/helixsave/helix/fingerprint.sample",
		CanonicalName(reflect.TypeOf(sample{})))
}

func TestOfType_IsSHA256OfCanonicalName(t *testing.T) {
	typ := reflect.TypeOf(sample{})
	want := sha256.Sum256([]byte(CanonicalName(typ)))
	require.Equal(t, want, OfType(typ))
}

func TestOf_MatchesOfType(t *testing.T) {
	require.Equal(t, OfType(reflect.TypeOf(sample{})), Of[sample]())
}

func TestOf_DistinguishesStructurallyIdenticalTypes(t *testing.T) {
	// sample and sampleOther have identical shapes; the digest binds to the
	// declared identity, not the structure.
	require.NotEqual(t, Of[sample](), Of[sampleOther]())
}

func TestOf_Deterministic(t *testing.T) {
	require.Equal(t, Of[sample](), Of[sample]())
}

func TestCanonicalName_UnnamedType(t *testing.T) {
	typ := reflect.TypeOf(struct{ X int }{})
	require.Equal(t, typ.String(), CanonicalName(typ))
}

func TestOf_PointerAndValueDiffer(t *testing.T) {
	require.NotEqual(t, Of[sample](), Of[*sample]())
}
