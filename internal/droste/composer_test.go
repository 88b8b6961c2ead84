package droste

import (
	"testing"

	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() Request {
	return Request{
		Width:  100,
		Height: 100,
		Quad:   homography.Quad{{X: 20, Y: 20}, {X: 80, Y: 20}, {X: 20, Y: 80}, {X: 80, Y: 80}},
		Depth:  8,
	}
}

func TestComposer_ComputesAndCaches(t *testing.T) {
	c, err := NewComposer(4)
	require.NoError(t, err)

	res, err := c.Compose(testRequest())
	require.NoError(t, err)
	require.Len(t, res.Stack, 8)
	assert.InDelta(t, 0.6, res.Base[0], 1e-9)
	assert.Equal(t, 1, c.Len())

	again, err := c.Compose(testRequest())
	require.NoError(t, err)
	assert.Equal(t, res, again)
	assert.Equal(t, 1, c.Len())
}

func TestComposer_ReturnsCopies(t *testing.T) {
	c, err := NewComposer(0)
	require.NoError(t, err)

	res, err := c.Compose(testRequest())
	require.NoError(t, err)
	res.Stack[1][0] = 42

	again, err := c.Compose(testRequest())
	require.NoError(t, err)
	assert.InDelta(t, 0.6, again.Stack[1][0], 1e-9)
}

func TestComposer_Evicts(t *testing.T) {
	c, err := NewComposer(2)
	require.NoError(t, err)
	for _, d := range []int{2, 8, 16} {
		req := testRequest()
		req.Depth = d
		_, err := c.Compose(req)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestComposer_Errors(t *testing.T) {
	c, err := NewComposer(2)
	require.NoError(t, err)

	req := testRequest()
	req.Depth = 3
	_, err = c.Compose(req)
	require.ErrorIs(t, err, ErrInvalidDepth)

	req = testRequest()
	req.Quad[1] = req.Quad[0]
	_, err = c.Compose(req)
	require.ErrorIs(t, err, homography.ErrDegenerateQuadrilateral)

	assert.Equal(t, 0, c.Len(), "failures are not cached")
}
