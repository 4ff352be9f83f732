package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/config"
	"github.com/jg-Harshini/Trackfence/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// LocationIngestor 消费端依赖的位置入口（LocationService 实现）
type LocationIngestor interface {
	UpdateLocation(ctx context.Context, patientID string, latitude, longitude float64, accuracy *float64, source string) (*models.Location, error)
}

// devicePayload GPS 手环上报的报文格式
// topic 约定为 trackfence/location/{patientID}
type devicePayload struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Battery   *float64 `json:"battery,omitempty"`
}

// MQTTConsumer 订阅设备位置主题，走统一的上报路径
type MQTTConsumer struct {
	client   mqtt.Client
	cfg      *config.MQTTConfig
	ingestor LocationIngestor
	logger   *zap.Logger
}

// NewMQTTConsumer 创建并连接 MQTT 消费端
func NewMQTTConsumer(cfg *config.MQTTConfig, ingestor LocationIngestor, logger *zap.Logger) (*MQTTConsumer, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTConsumer{
		client:   client,
		cfg:      cfg,
		ingestor: ingestor,
		logger:   logger,
	}, nil
}

// Start 订阅位置主题
func (c *MQTTConsumer) Start() error {
	if token := c.client.Subscribe(c.cfg.Topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if err := c.handleMessage(msg.Topic(), msg.Payload()); err != nil {
			// 记录错误，但不中断订阅
			c.logger.Error("Failed to handle device message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.Topic, token.Error())
	}

	c.logger.Info("MQTT consumer started", zap.String("topic", c.cfg.Topic))
	return nil
}

func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	patientID, err := PatientIDFromTopic(topic)
	if err != nil {
		return err
	}

	var p devicePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("invalid device payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.ingestor.UpdateLocation(ctx, patientID, p.Latitude, p.Longitude, p.Accuracy, models.SourceDevice); err != nil {
		return fmt.Errorf("failed to ingest device location: %w", err)
	}

	return nil
}

// PatientIDFromTopic 从主题中取 patientID
// 主题格式固定为 trackfence/location/{patientID}
func PatientIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] == "" {
		return "", fmt.Errorf("unexpected topic format: %s", topic)
	}
	return parts[2], nil
}

// Stop 断开 MQTT 连接
func (c *MQTTConsumer) Stop() {
	c.client.Disconnect(250)
	c.logger.Info("MQTT consumer stopped")
}
