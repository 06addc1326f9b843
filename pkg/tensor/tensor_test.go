package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edge-profiler/pkg/types"
)

func TestNew(t *testing.T) {
	tn, err := New(3, 224, 224)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 224, 224}, tn.Shape())
	assert.Equal(t, 3*224*224, tn.Len())
}

func TestNewRejectsBadShape(t *testing.T) {
	var verr *types.ValidationError

	_, err := New()
	require.ErrorAs(t, err, &verr)

	_, err = New(3, 0, 224)
	require.ErrorAs(t, err, &verr)

	_, err = New(-1)
	require.ErrorAs(t, err, &verr)
}

func TestFromData(t *testing.T) {
	tn, err := FromData([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	v, err := tn.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(6), v)

	_, err = FromData([]float32{1, 2, 3}, 2, 3)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReshapePreservesElements(t *testing.T) {
	tn, err := FromData([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	r, err := tn.Reshape(3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, r.Shape())
	assert.Equal(t, tn.Data(), r.Data())

	_, err = tn.Reshape(4, 2)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFlatten(t *testing.T) {
	tn, err := New(2, 3, 4)
	require.NoError(t, err)

	f := tn.Flatten()
	assert.Equal(t, []int{24}, f.Shape())
}

func TestIndexing(t *testing.T) {
	tn, err := New(2, 2)
	require.NoError(t, err)

	require.NoError(t, tn.Set(7.5, 1, 0))
	v, err := tn.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(7.5), v)

	_, err = tn.At(2, 0)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = tn.At(0)
	require.ErrorAs(t, err, &verr)
}
