package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ProviderError 外部定位服务错误（网络、认证、响应格式）
// 调用方据此区分"服务不可用"和业务错误；出现此错误时
// 不会有任何位置写入发生
type ProviderError struct {
	Op         string // 失败的操作，如 "fetch location"
	StatusCode int    // HTTP 状态码，网络错误时为 0
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("shipday provider: %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("shipday provider: %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Coordinates 定位结果
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ShipdayClient Shipday 定位服务客户端
// 通过 tracking ID 拉取设备当前 GPS 坐标
type ShipdayClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewShipdayClient 创建 Shipday 客户端
func NewShipdayClient(baseURL, apiKey string, logger *zap.Logger) *ShipdayClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ShipdayClient{
		httpClient: client,
		logger:     logger,
	}
}

// FetchLocation 拉取 tracking ID 对应的当前坐标
// 任何失败都返回 *ProviderError，调用方必须在成功后才落库
func (c *ShipdayClient) FetchLocation(ctx context.Context, trackingID string) (*Coordinates, error) {
	if trackingID == "" {
		return nil, &ProviderError{Op: "fetch location", Err: fmt.Errorf("tracking ID is required")}
	}

	var coords Coordinates
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&coords).
		Get("/tracking/" + trackingID + "/location")

	if err != nil {
		c.logger.Error("Shipday API call failed",
			zap.String("tracking_id", trackingID),
			zap.Error(err),
		)
		return nil, &ProviderError{Op: "fetch location", Err: err}
	}

	if resp.IsError() {
		c.logger.Error("Shipday API returned error status",
			zap.String("tracking_id", trackingID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, &ProviderError{
			Op:         "fetch location",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected response: %s", resp.Status()),
		}
	}

	c.logger.Info("Fetched location from Shipday",
		zap.String("tracking_id", trackingID),
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude),
	)

	return &coords, nil
}

// TestConnection 探测 Shipday 服务可用性
func (c *ShipdayClient) TestConnection(ctx context.Context) bool {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}
