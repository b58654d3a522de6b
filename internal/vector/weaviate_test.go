package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wvtmodels "github.com/weaviate/weaviate/entities/models"
)

func TestParseSearchResponse_PreservesRankOrder(t *testing.T) {
	data := map[string]wvtmodels.JSONObject{
		"Get": map[string]interface{}{
			className: []interface{}{
				map[string]interface{}{"content": "best match"},
				map[string]interface{}{"content": "second match"},
				map[string]interface{}{"content": "third match"},
			},
		},
	}

	docs := parseSearchResponse(data)
	require.Len(t, docs, 3)
	assert.Equal(t, "best match", docs[0].Content)
	assert.Equal(t, "second match", docs[1].Content)
	assert.Equal(t, "third match", docs[2].Content)
}

func TestParseSearchResponse_ToleratesMalformedPayloads(t *testing.T) {
	// Missing Get section.
	assert.Empty(t, parseSearchResponse(map[string]wvtmodels.JSONObject{}))

	// Get present but class missing.
	assert.Empty(t, parseSearchResponse(map[string]wvtmodels.JSONObject{
		"Get": map[string]interface{}{},
	}))

	// Hits with unexpected shapes are skipped, valid ones kept.
	data := map[string]wvtmodels.JSONObject{
		"Get": map[string]interface{}{
			className: []interface{}{
				"not an object",
				map[string]interface{}{"content": 42},
				map[string]interface{}{"content": "kept"},
			},
		},
	}
	docs := parseSearchResponse(data)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].Content)
}
