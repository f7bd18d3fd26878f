package recommend

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-recommender/internal/core/cache"
	"recipe-recommender/internal/core/catalog"
	"recipe-recommender/internal/core/vision"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Store {
	return catalog.NewStoreFromData(
		[]catalog.Recipe{
			{
				Name:              "김치찌개",
				RequiredMaterials: `{"core":["김치","돼지고기"],"optional":["두부"]}`,
				Steps:             "끓인다",
				ImageURL:          "default_image_url",
			},
			{
				Name:              "두부조림",
				RequiredMaterials: `{"core":["두부"]}`,
				ImageURL:          "default_image_url",
			},
		},
		map[string]string{
			"포기김치": "김치",
			"삼겹살":  "돼지고기",
			"두부":   "두부",
		},
	)
}

func testRouter(t *testing.T, visionClient *vision.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Recommend: config.RecommendConfig{TopN: 5},
	}
	cacheService, err := cache.NewService(&config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	handler := NewHandler(cfg, testCatalog(), visionClient, cacheService)

	router := gin.New()
	router.GET("/", handler.HandleHome)
	router.POST("/recommend", handler.HandleRecommend)
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleHome(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleRecommendFromLines(t *testing.T) {
	router := testRouter(t, nil)

	w := postJSON(router, `{"receipt_lines":["포기김치 1봉","삼겹살 600g"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []string{"김치", "돼지고기"}, resp.StandardMaterials)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "김치찌개", resp.Recommendations[0].Name)
	assert.Equal(t, 66, resp.Recommendations[0].MatchRatio)
	assert.Equal(t, []string{"두부"}, resp.Recommendations[0].MissingMaterials)
	assert.Empty(t, resp.OCRLines)
}

func TestHandleRecommendEmptyLines(t *testing.T) {
	router := testRouter(t, nil)

	for _, body := range []string{`{"receipt_lines":[]}`, `{}`} {
		w := postJSON(router, body)

		require.Equal(t, http.StatusOK, w.Code)
		var resp RecommendResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)
		assert.Empty(t, resp.StandardMaterials)
		assert.Empty(t, resp.Recommendations)
	}
}

func TestHandleRecommendUnrecognizedLines(t *testing.T) {
	router := testRouter(t, nil)

	w := postJSON(router, `{"receipt_lines":["합계 12,000원","포인트 적립"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Empty(t, resp.StandardMaterials)
	assert.Empty(t, resp.Recommendations)
}

func TestHandleRecommendInvalidJSON(t *testing.T) {
	router := testRouter(t, nil)

	w := postJSON(router, `{"receipt_lines": "not an array"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp common.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestHandleRecommendImageWithoutVision(t *testing.T) {
	router := testRouter(t, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "receipt.jpg")
	require.NoError(t, err)
	part.Write([]byte("fake-image"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/recommend", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// OCR 未配置時拒絕圖片請求，不做降級
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp common.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestHandleRecommendImageMissingField(t *testing.T) {
	server := annotateStub("포기김치 1봉")
	defer server.Close()
	router := testRouter(t, stubVisionClient(t, server.URL))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("not_image", "x"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/recommend", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRecommendImageMode(t *testing.T) {
	server := annotateStub("포기김치 1봉\n삼겹살 600g\n합계 12,000원")
	defer server.Close()
	router := testRouter(t, stubVisionClient(t, server.URL))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "receipt.jpg")
	require.NoError(t, err)
	part.Write([]byte("fake-image"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/recommend", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []string{"포기김치 1봉", "삼겹살 600g", "합계 12,000원"}, resp.OCRLines)
	assert.Equal(t, []string{"김치", "돼지고기"}, resp.StandardMaterials)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "김치찌개", resp.Recommendations[0].Name)
}

// annotateStub 模擬 Vision images:annotate 端點
func annotateStub(fullText string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

func stubVisionClient(t *testing.T, endpoint string) *vision.Client {
	client, err := vision.NewClient(&config.VisionConfig{
		Enabled:  true,
		APIKey:   "test-key",
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return client
}
