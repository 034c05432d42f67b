package mood

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerationsNewerSubmissionCancelsOlder(t *testing.T) {
	g := newGenerations()

	ctx1, t1, release1 := g.begin(context.Background(), "s1")
	ctx2, t2, release2 := g.begin(context.Background(), "s1")

	require.ErrorIs(t, ctx1.Err(), context.Canceled)
	require.NoError(t, ctx2.Err())
	require.False(t, g.isCurrent(t1))
	require.True(t, g.isCurrent(t2))

	release1()
	require.True(t, g.isCurrent(t2), "releasing a stale ticket must not clear the newer one")
	require.Equal(t, 1, g.inFlight())

	release2()
	require.Zero(t, g.inFlight())
	require.ErrorIs(t, ctx2.Err(), context.Canceled)
}

func TestGenerationsSessionsAreIndependent(t *testing.T) {
	g := newGenerations()

	ctxA, ta, releaseA := g.begin(context.Background(), "a")
	defer releaseA()
	_, tb, releaseB := g.begin(context.Background(), "b")
	defer releaseB()

	require.NoError(t, ctxA.Err())
	require.True(t, g.isCurrent(ta))
	require.True(t, g.isCurrent(tb))
	require.Equal(t, 2, g.inFlight())
}

func TestGenerationsWithoutSession(t *testing.T) {
	g := newGenerations()
	parent := context.Background()

	ctx, tk, release := g.begin(parent, "")
	defer release()

	require.Equal(t, parent, ctx)
	require.True(t, g.isCurrent(tk))
	require.Zero(t, g.inFlight())
}
