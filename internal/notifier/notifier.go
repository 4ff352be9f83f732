package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jg-Harshini/Trackfence/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 频道前缀：每个 patient 两个频道，位置和报警分开
const (
	locationChannelPrefix = "trackfence:location:"
	alertChannelPrefix    = "trackfence:alerts:"
)

// LocationChannel 位置更新频道名
func LocationChannel(patientID string) string {
	return locationChannelPrefix + patientID
}

// AlertChannel 报警频道名
func AlertChannel(patientID string) string {
	return alertChannelPrefix + patientID
}

// RedisNotifier 实时推送（Redis Pub/Sub）
// 推送是尽力而为的：序列化或发布失败只记日志，
// 绝不让触发推送的位置写入或报警创建失败
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier 创建推送器
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		logger: logger,
	}
}

// PublishLocation 推送已落库的位置采样
func (n *RedisNotifier) PublishLocation(ctx context.Context, patientID string, loc *models.Location) {
	n.publish(ctx, LocationChannel(patientID), loc)
}

// PublishAlert 推送新建或状态变化的报警
func (n *RedisNotifier) PublishAlert(ctx context.Context, patientID string, alert *models.Alert) {
	n.publish(ctx, AlertChannel(patientID), alert)
}

// Subscribe 订阅一个或多个频道（WebSocket 桥接用）
func (n *RedisNotifier) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return n.client.Subscribe(ctx, channels...)
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("Failed to marshal notification payload",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}

	// 没有订阅者时 PUBLISH 返回 0，不算失败
	receivers, err := n.client.Publish(ctx, channel, data).Result()
	if err != nil {
		n.logger.Error("Failed to publish notification",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("Notification published",
		zap.String("channel", channel),
		zap.Int64("receivers", receivers),
	)
}

// Ping 测试 Redis 连接
func (n *RedisNotifier) Ping(ctx context.Context) error {
	if err := n.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
