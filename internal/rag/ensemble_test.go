package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleRetriever_WeightsAppliedAndMerged(t *testing.T) {
	java, err := NewCorpusIndex("java", []EmbeddedChunk{
		testChunk("java chunk", "j-1", "java", []float32{1, 0}),
	})
	require.NoError(t, err)
	web, err := NewCorpusIndex("web", []EmbeddedChunk{
		testChunk("web chunk", "w-1", "web", []float32{1, 0}),
	})
	require.NoError(t, err)

	set := NewIndexSet(
		map[string]*CorpusIndex{"java": java, "web": web},
		map[string]float64{"java": 0.5, "web": 2},
	)

	hits, err := set.Ensemble().Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Both chunks score cosine 1.0 raw; the weighted web chunk must lead.
	assert.Equal(t, "web chunk", hits[0].Chunk.Text)
	assert.InDelta(t, 2.0, hits[0].Score, 1e-9)
	assert.Equal(t, "java chunk", hits[1].Chunk.Text)
	assert.InDelta(t, 0.5, hits[1].Score, 1e-9)
}

func TestEnsembleRetriever_MissingWeightDefaultsToOne(t *testing.T) {
	bsa, err := NewCorpusIndex("bsa", []EmbeddedChunk{
		testChunk("bsa chunk", "b-1", "bsa", []float32{1, 0}),
	})
	require.NoError(t, err)

	set := NewIndexSet(map[string]*CorpusIndex{"bsa": bsa}, map[string]float64{})

	hits, err := set.Ensemble().Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestEnsembleRetriever_NegativeWeightClampedToZero(t *testing.T) {
	bsa, err := NewCorpusIndex("bsa", []EmbeddedChunk{
		testChunk("bsa chunk", "b-1", "bsa", []float32{1, 0}),
	})
	require.NoError(t, err)

	set := NewIndexSet(map[string]*CorpusIndex{"bsa": bsa}, map[string]float64{"bsa": -3})

	hits, err := set.Ensemble().Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].Score)
}

func TestEnsembleRetriever_TruncatesToK(t *testing.T) {
	java, err := NewCorpusIndex("java", []EmbeddedChunk{
		testChunk("one", "j-1", "java", []float32{1, 0}),
		testChunk("two", "j-2", "java", []float32{0.9, 0.1}),
	})
	require.NoError(t, err)
	web, err := NewCorpusIndex("web", []EmbeddedChunk{
		testChunk("three", "w-1", "web", []float32{0.8, 0.2}),
	})
	require.NoError(t, err)

	set := NewIndexSet(map[string]*CorpusIndex{"java": java, "web": web}, nil)

	hits, err := set.Ensemble().Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestEnsembleRetriever_EmptySet(t *testing.T) {
	set := NewIndexSet(nil, nil)

	hits, err := set.Ensemble().Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, "ensemble", set.Ensemble().Name())
}
