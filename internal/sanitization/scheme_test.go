package sanitization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeRepo(t *testing.T) {
	repo := DefaultRepo()

	t.Run("ContainsStandardSchemes", func(t *testing.T) {
		for _, name := range []string{"zero", "one", "random", "random2", "badblocks", "gost", "dod"} {
			s, ok := repo.Find(name)
			require.True(t, ok, "scheme %s missing", name)
			assert.NoError(t, s.Validate())
			assert.NotEmpty(t, s.Stages)
		}
	})

	t.Run("UnknownSchemeNotFound", func(t *testing.T) {
		_, ok := repo.Find("gutmann")
		assert.False(t, ok)
	})

	t.Run("AllPreservesOrder", func(t *testing.T) {
		all := repo.All()
		names := repo.Names()
		require.Equal(t, len(names), len(all))
		for i, s := range all {
			assert.Equal(t, names[i], s.Name)
		}
	})

	t.Run("RandomSchemesGetFreshSeeds", func(t *testing.T) {
		r2, ok := repo.Find("random2")
		require.True(t, ok)
		require.Len(t, r2.Stages, 2)
		assert.NotEqual(t, r2.Stages[0].Seed, r2.Stages[1].Seed)
	})
}

func TestSchemeValidate(t *testing.T) {
	t.Run("EmptySchemeRejected", func(t *testing.T) {
		err := Scheme{Name: "empty"}.Validate()
		assert.ErrorContains(t, err, "no stages")
	})

	t.Run("EmptyPatternRejected", func(t *testing.T) {
		s := Scheme{Name: "bad", Stages: []Stage{Pattern(nil)}}
		assert.ErrorContains(t, s.Validate(), "empty fill pattern")
	})

	t.Run("PatternSchemeAccepted", func(t *testing.T) {
		s := Scheme{Name: "ok", Stages: []Stage{Pattern([]byte{0xaa, 0x55})}}
		assert.NoError(t, s.Validate())
	})
}

func TestParseVerify(t *testing.T) {
	cases := map[string]Verify{
		"no":   VerifyNone,
		"none": VerifyNone,
		"last": VerifyLast,
		"all":  VerifyAll,
	}
	for in, want := range cases {
		v, err := ParseVerify(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v)
	}

	_, err := ParseVerify("sometimes")
	assert.Error(t, err)
}
