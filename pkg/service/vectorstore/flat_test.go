package vectorstore_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
)

func TestFlatIndexSearch(t *testing.T) {
	t.Parallel()

	idx, err := vectorstore.NewFlatIndex(2)
	gt.NoError(t, err).Required()
	gt.NoError(t, idx.Add([]float32{1, 0}))
	gt.NoError(t, idx.Add([]float32{0, 1}))
	gt.NoError(t, idx.Add([]float32{-1, 0}))

	t.Run("nearest first", func(t *testing.T) {
		hits, err := idx.Search([]float32{0.9, 0.1}, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(3)
		gt.Value(t, hits[0].Index).Equal(0)
		gt.Value(t, hits[2].Index).Equal(2)
		gt.Bool(t, hits[0].Distance <= hits[1].Distance).True()
		gt.Bool(t, hits[1].Distance <= hits[2].Distance).True()
	})

	t.Run("k larger than index is clamped", func(t *testing.T) {
		hits, err := idx.Search([]float32{1, 0}, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(3)
	})

	t.Run("k zero is rejected", func(t *testing.T) {
		_, err := idx.Search([]float32{1, 0}, 0)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.TagInvalidArgument)).True()
	})

	t.Run("dimension mismatch is rejected", func(t *testing.T) {
		_, err := idx.Search([]float32{1, 0, 0}, 1)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.TagInvalidArgument)).True()
	})
}

func TestFlatIndexTieBreak(t *testing.T) {
	t.Parallel()

	// Two vectors equidistant from the query: insertion order wins.
	idx, err := vectorstore.NewFlatIndex(2)
	gt.NoError(t, err).Required()
	gt.NoError(t, idx.Add([]float32{0, 1}))
	gt.NoError(t, idx.Add([]float32{0, -1}))

	hits, err := idx.Search([]float32{1, 0}, 2)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(2)
	gt.Value(t, hits[0].Index).Equal(0)
	gt.Value(t, hits[1].Index).Equal(1)
	gt.Value(t, hits[0].Distance).Equal(hits[1].Distance)
}

func TestFlatIndexEmpty(t *testing.T) {
	t.Parallel()

	idx, err := vectorstore.NewFlatIndex(3)
	gt.NoError(t, err).Required()
	hits, err := idx.Search([]float32{1, 0, 0}, 5)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(0)
}

func TestFlatIndexSquaredDistance(t *testing.T) {
	t.Parallel()

	idx, err := vectorstore.NewFlatIndex(2)
	gt.NoError(t, err).Required()
	gt.NoError(t, idx.Add([]float32{0, 0}))

	// Distance to (3, 4) is 25 squared, not 5.
	hits, err := idx.Search([]float32{3, 4}, 1)
	gt.NoError(t, err).Required()
	gt.Value(t, hits[0].Distance).Equal(float64(25))
}

func TestNewFlatIndexInvalidDim(t *testing.T) {
	t.Parallel()

	_, err := vectorstore.NewFlatIndex(0)
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagInvalidArgument)).True()
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("scales to unit length", func(t *testing.T) {
		v := []float32{3, 4}
		vectorstore.Normalize(v)
		gt.Value(t, v[0]).Equal(float32(0.6))
		gt.Value(t, v[1]).Equal(float32(0.8))
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := []float32{0, 0, 0}
		vectorstore.Normalize(v)
		gt.Value(t, v[0]).Equal(float32(0))
		gt.Value(t, v[1]).Equal(float32(0))
		gt.Value(t, v[2]).Equal(float32(0))
	})
}
