package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client Google Vision 文字偵測客戶端
type Client struct {
	config *config.VisionConfig
	client *resty.Client
}

// annotateRequest images:annotate 請求
type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type string `json:"type"`
}

// annotateResponse images:annotate 響應
type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// NewClient 創建 Vision 客戶端
// 未啟用或缺少 API Key 時回傳錯誤，由呼叫端決定是否拒絕圖片請求
func NewClient(cfg *config.VisionConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("vision client is disabled")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision api key is missing")
	}

	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetQueryParam("key", cfg.APIKey)

	common.LogInfo("✅ Vision 客戶端初始化成功",
		zap.String("endpoint", cfg.Endpoint),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &Client{
		config: cfg,
		client: client,
	}, nil
}

// DetectLines 對圖片執行文字偵測，回傳去除空白後的文字行
func (c *Client) DetectLines(ctx context.Context, content []byte) ([]string, error) {
	req := annotateRequest{
		Requests: []annotateEntry{
			{
				Image:    imageContent{Content: base64.StdEncoding.EncodeToString(content)},
				Features: []feature{{Type: "TEXT_DETECTION"}},
			},
		},
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&annotateResponse{}).
		Post("/images:annotate")
	if err != nil {
		common.LogVisionCall(time.Since(start), 0, err, "")
		return nil, fmt.Errorf("failed to call vision api: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("vision api returned status %d: %s", resp.StatusCode(), resp.String())
		common.LogVisionCall(time.Since(start), 0, err, "")
		return nil, err
	}

	result, ok := resp.Result().(*annotateResponse)
	if !ok || len(result.Responses) == 0 {
		return nil, fmt.Errorf("empty vision api response")
	}

	annotation := result.Responses[0]
	if annotation.Error != nil {
		err := fmt.Errorf("vision api error: %s", annotation.Error.Message)
		common.LogVisionCall(time.Since(start), 0, err, "")
		return nil, err
	}

	// 第一個 annotation 是整張圖的全文，逐行拆開
	fullText := ""
	if len(annotation.TextAnnotations) > 0 {
		fullText = annotation.TextAnnotations[0].Description
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(fullText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	common.LogVisionCall(time.Since(start), len(lines), nil, "")
	return lines, nil
}
