package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-recommender/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) *config.VisionConfig {
	return &config.VisionConfig{
		Enabled:  true,
		APIKey:   "test-key",
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	}
}

func annotateStub(t *testing.T, fullText string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images:annotate", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"responses": []map[string]interface{}{
				{
					"textAnnotations": []map[string]string{
						{"description": fullText},
					},
				},
			},
		})
	}))
}

func TestNewClientRequiresEnabledAndKey(t *testing.T) {
	_, err := NewClient(&config.VisionConfig{Enabled: false})
	assert.Error(t, err)

	_, err = NewClient(&config.VisionConfig{Enabled: true, APIKey: ""})
	assert.Error(t, err)
}

func TestDetectLinesSplitsAndTrims(t *testing.T) {
	server := annotateStub(t, "포기김치 1봉\n  삼겹살 600g  \n\n합계 12,000원\n")
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	lines, err := client.DetectLines(context.Background(), []byte("fake-image"))
	require.NoError(t, err)

	assert.Equal(t, []string{"포기김치 1봉", "삼겹살 600g", "합계 12,000원"}, lines)
}

func TestDetectLinesEmptyText(t *testing.T) {
	server := annotateStub(t, "")
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	lines, err := client.DetectLines(context.Background(), []byte("fake-image"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestDetectLinesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"responses": []map[string]interface{}{
				{"error": map[string]interface{}{"code": 7, "message": "permission denied"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.DetectLines(context.Background(), []byte("fake-image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestDetectLinesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.DetectLines(context.Background(), []byte("fake-image"))
	assert.Error(t, err)
}
