package group

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/onet/v3/log"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func TestContext_Constants(t *testing.T) {
	for _, name := range []string{"Ed25519", "P256"} {
		ctx, err := NewContext(name)
		require.NoError(t, err)
		require.Equal(t, name, ctx.Name())

		cst := ctx.Constants()
		require.Equal(t, 32, len(cst.LargePrime))
		require.Equal(t, 32, len(cst.SmallPrime))
		require.Equal(t, ctx.Suite.PointLen(), len(cst.Generator))

		g, err := ctx.PointFromBytes(cst.Generator)
		require.NoError(t, err)
		require.True(t, g.Equal(ctx.Suite.Point().Base()))
	}

	_, err := NewContext("Residue512")
	require.Error(t, err)
	require.Panics(t, func() { MustContext("nope") })
}

// Two contexts with the same seed draw the same scalars, and another seed
// gives other scalars.
func TestContext_Seed(t *testing.T) {
	c1, err := NewContextWithSeed(DefaultSuiteName, []byte("seed"))
	require.NoError(t, err)
	c2, err := NewContextWithSeed(DefaultSuiteName, []byte("seed"))
	require.NoError(t, err)
	c3, err := NewContextWithSeed(DefaultSuiteName, []byte("other"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		s1, s2, s3 := c1.RandomScalar(), c2.RandomScalar(), c3.RandomScalar()
		require.True(t, s1.Equal(s2))
		require.False(t, s1.Equal(s3))
	}
}

func TestContext_Encoding(t *testing.T) {
	ctx := MustContext(DefaultSuiteName)
	s := ctx.RandomScalar()
	buf, err := s.MarshalBinary()
	require.NoError(t, err)

	back, err := ctx.ScalarFromBytes(buf)
	require.NoError(t, err)
	require.True(t, s.Equal(back))

	_, err = ctx.ScalarFromBytes(buf[1:])
	require.Error(t, err)

	p := ctx.GPow(s)
	buf, err = p.MarshalBinary()
	require.NoError(t, err)
	pBack, err := ctx.PointFromBytes(buf)
	require.NoError(t, err)
	require.True(t, p.Equal(pBack))
}

func TestContext_Product(t *testing.T) {
	ctx := MustContext(DefaultSuiteName)
	a, b := ctx.RandomScalar(), ctx.RandomScalar()
	sum := ctx.Suite.Scalar().Add(a, b)

	require.True(t, ctx.GPow(sum).Equal(ctx.Product(ctx.GPow(a), ctx.GPow(b))))
	require.True(t, ctx.Product().Equal(ctx.Suite.Point().Null()))
}

func TestContext_ScalarFromInt(t *testing.T) {
	ctx := MustContext(DefaultSuiteName)
	three := ctx.ScalarFromInt(3)
	sum := ctx.Suite.Scalar().Add(ctx.ScalarFromInt(1), ctx.ScalarFromInt(2))
	require.True(t, three.Equal(sum))
}
