package recommend

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"recipe-recommender/internal/core/cache"
	"recipe-recommender/internal/core/catalog"
	"recipe-recommender/internal/core/match"
	"recipe-recommender/internal/core/normalize"
	"recipe-recommender/internal/core/vision"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecommendRequest JSON 輸入模式的請求
type RecommendRequest struct {
	ReceiptLines []string `json:"receipt_lines"`
}

// RecommendResponse 推薦響應
type RecommendResponse struct {
	Status            string                 `json:"status"`
	StandardMaterials []string               `json:"standard_materials"`
	OCRLines          []string               `json:"ocr_lines,omitempty"`
	Recommendations   []match.Recommendation `json:"recommendations"`
}

// Handler 收據推薦處理器
// 目錄與正規化器在第一個請求時惰性載入，之後唯讀共享
type Handler struct {
	config       *config.Config
	store        *catalog.Store
	visionClient *vision.Client // 未配置 OCR 時為 nil
	cacheService *cache.Service
	recommender  *match.Recommender

	mu         sync.Mutex
	normalizer *normalize.Normalizer
}

// NewHandler 創建推薦處理器
func NewHandler(cfg *config.Config, store *catalog.Store, visionClient *vision.Client, cacheService *cache.Service) *Handler {
	return &Handler{
		config:       cfg,
		store:        store,
		visionClient: visionClient,
		cacheService: cacheService,
		recommender:  match.NewRecommender(store),
	}
}

// ensureReady 確保目錄已載入、正規化器已建立（冪等，每個請求都可呼叫）
// 載入失敗不是致命錯誤：空目錄只會讓推薦結果為空
func (h *Handler) ensureReady() {
	if err := h.store.Load(); err != nil {
		common.LogError("目錄載入失敗，以空目錄繼續服務", zap.Error(err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.normalizer == nil {
		mapping := h.store.Mapping()
		if len(mapping) > 0 {
			h.normalizer = normalize.New(mapping)
			common.LogInfo("正規化器建立完成", zap.Int("鍵數", len(mapping)))
		}
	}
}

// currentNormalizer 取得正規化器，目錄為空時回傳空正規化器
func (h *Handler) currentNormalizer() *normalize.Normalizer {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.normalizer == nil {
		return normalize.New(nil)
	}
	return h.normalizer
}

// HandleHome 服務狀態探測，同時觸發目錄暖載入
func (h *Handler) HandleHome(c *gin.Context) {
	h.ensureReady()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Recipe Recommender Service is running",
	})
}

// HandleRecommend 處理推薦請求
// 輸入有兩種模式：multipart 的 image 欄位（走 OCR），或 JSON 的 receipt_lines
func (h *Handler) HandleRecommend(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	h.ensureReady()

	var (
		lines     []string
		ocrLines  []string
		imageMode bool
	)

	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		imageMode = true
		ocrResult, handled := h.linesFromImage(c, requestID)
		if handled {
			return
		}
		lines = ocrResult
		ocrLines = ocrResult
	} else {
		var req RecommendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式錯誤",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusBadRequest, common.NewErrorStatus("無效的請求格式"))
			return
		}
		lines = req.ReceiptLines
	}

	// 空輸入不是錯誤，回傳空結果
	materials := h.currentNormalizer().Normalize(lines)
	common.LogInfo("正規化完成",
		zap.Int("輸入行數", len(lines)),
		zap.Strings("標準食材", materials),
		zap.String("request_id", requestID),
	)

	recommendations, hit := h.cacheService.Get(c.Request.Context(), materials)
	if !hit {
		recommendations = h.recommender.Recommend(materials, h.config.Recommend.TopN)
		if err := h.cacheService.Set(c.Request.Context(), materials, recommendations); err != nil {
			common.LogWarn("推薦結果緩存失敗", zap.Error(err))
		}
	}

	response := RecommendResponse{
		Status:            "success",
		StandardMaterials: materials,
		Recommendations:   recommendations,
	}
	if imageMode {
		response.OCRLines = ocrLines
	}

	common.LogInfo("推薦完成",
		zap.Int("推薦數", len(recommendations)),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, response)
}

// linesFromImage 讀取上傳圖片並執行 OCR
// 已寫出錯誤響應時回傳 handled=true，呼叫端直接結束
func (h *Handler) linesFromImage(c *gin.Context, requestID string) ([]string, bool) {
	// OCR 未配置時拒絕圖片請求，不做降級服務
	if h.visionClient == nil {
		common.LogError("Vision 客戶端未初始化，拒絕圖片請求",
			zap.String("request_id", requestID),
		)
		c.JSON(common.ErrVisionUnavailable.Status, common.NewErrorStatus(common.ErrVisionUnavailable.Message))
		return nil, true
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(common.ErrMissingImage.Status, common.NewErrorStatus(common.ErrMissingImage.Message))
		return nil, true
	}
	if fileHeader.Filename == "" || fileHeader.Size == 0 {
		c.JSON(common.ErrEmptyImage.Status, common.NewErrorStatus(common.ErrEmptyImage.Message))
		return nil, true
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.LogError("圖片檔案開啟失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, common.NewErrorStatus("圖片讀取失敗"))
		return nil, true
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		common.LogError("圖片檔案讀取失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, common.NewErrorStatus("圖片讀取失敗"))
		return nil, true
	}

	lines, err := h.visionClient.DetectLines(c.Request.Context(), content)
	if err != nil {
		common.LogError("OCR 執行失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(common.ErrVisionCallFailed.Status, common.NewErrorStatus(common.ErrVisionCallFailed.Message))
		return nil, true
	}

	if len(lines) == 0 {
		common.LogWarn("OCR 結果為空", zap.String("request_id", requestID))
		c.JSON(common.ErrEmptyOCRText.Status, common.NewErrorStatus(common.ErrEmptyOCRText.Message))
		return nil, true
	}

	common.LogInfo("--- Vision OCR 結果 ---",
		zap.Int("行數", len(lines)),
		zap.String("request_id", requestID),
	)
	return lines, false
}
