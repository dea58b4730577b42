package commitment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitDeterministic(t *testing.T) {
	deck := []uint8{0, 1, 0, 1}

	a := Commit(deck, "s")
	b := Commit(deck, "s")
	require.Equal(t, a, b, "same inputs must produce the same digest")
}

func TestCommitBindsDeckAndSalt(t *testing.T) {
	base := Commit([]uint8{0, 1, 0, 1}, "s")

	cases := map[string][32]byte{
		"different deck":  Commit([]uint8{1, 0, 1, 0}, "s"),
		"different salt":  Commit([]uint8{0, 1, 0, 1}, "t"),
		"different size":  Commit([]uint8{0, 1}, "s"),
		"single card off": Commit([]uint8{0, 1, 0, 2}, "s"),
	}
	for name, digest := range cases {
		require.NotEqual(t, base, digest, name)
	}
}

func TestSaltScalarDeterministic(t *testing.T) {
	require.Equal(t, 0, SaltScalar("random-salt-12345").Cmp(SaltScalar("random-salt-12345")))
	require.NotEqual(t, 0, SaltScalar("a").Cmp(SaltScalar("b")))
}
