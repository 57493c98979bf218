package vectordb

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsToDocuments_MapsIDAndContent(t *testing.T) {
	cols := []entity.Column{
		entity.NewColumnVarChar(fieldID, []string{"doc1", "doc2", "doc3"}),
		entity.NewColumnVarChar(fieldContent, []string{"one", "two", "three"}),
	}

	docs, err := columnsToDocuments(cols, 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "doc1", docs[0].ID)
	assert.Equal(t, "one", docs[0].Content)
	assert.Equal(t, "doc3", docs[2].ID)
}

func TestColumnsToDocuments_RespectsLimit(t *testing.T) {
	cols := []entity.Column{
		entity.NewColumnVarChar(fieldID, []string{"doc1", "doc2", "doc3"}),
		entity.NewColumnVarChar(fieldContent, []string{"one", "two", "three"}),
	}

	docs, err := columnsToDocuments(cols, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestColumnsToDocuments_NoIDColumnReturnsNil(t *testing.T) {
	cols := []entity.Column{
		entity.NewColumnVarChar(fieldContent, []string{"one"}),
	}
	docs, err := columnsToDocuments(cols, 0)
	require.NoError(t, err)
	assert.Nil(t, docs)
}

func TestColumnsToDocuments_MissingContentColumnLeavesContentEmpty(t *testing.T) {
	cols := []entity.Column{
		entity.NewColumnVarChar(fieldID, []string{"doc1"}),
	}
	docs, err := columnsToDocuments(cols, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc1", docs[0].ID)
	assert.Empty(t, docs[0].Content)
}
