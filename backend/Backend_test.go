package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeMatMul(t *testing.T) {
	e := Native()

	// (2x3)·(3x2)
	a := []float64{1, 2, 3, 4, 5, 6}
	b := []float64{7, 8, 9, 10, 11, 12}

	got, err := e.MatMul(a, 2, 3, b, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{58, 64, 139, 154}, got)
}

func TestNativeMatMulRejectsBadShapes(t *testing.T) {
	e := Native()

	_, err := e.MatMul([]float64{1, 2, 3}, 2, 2, []float64{1, 2, 3, 4}, 2)
	assert.Error(t, err)

	_, err = e.MatMul([]float64{1, 2, 3, 4}, 2, 2, []float64{1, 2, 3}, 2)
	assert.Error(t, err)
}

func TestNativeEngineIdentity(t *testing.T) {
	e := Native()
	assert.Equal(t, "native", e.Name())
	assert.False(t, e.Accelerated())
}

func TestInitReturnsWorkingEngine(t *testing.T) {
	e, info := Init()
	require.NotNil(t, e)
	assert.NotEmpty(t, info.BackendName)
	assert.Equal(t, e.Name(), info.BackendName)
	assert.Equal(t, e.Accelerated(), info.Accelerated)

	// Whatever engine Init settled on must multiply correctly
	got, err := e.MatMul([]float64{1, 2, 3, 4}, 2, 2,
		[]float64{5, 6, 7, 8}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{19, 22, 43, 50}, got)
}
