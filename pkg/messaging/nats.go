package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSClient NATS JetStream客户端，监控任务用它发布提醒触发事件
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewNATSClient 创建新的NATS客户端
func NewNATSClient(natsURL string) (*NATSClient, error) {
	// 连接NATS
	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	// 创建JetStream上下文
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		ctx:       ctx,
		cancel:    cancel,
	}

	// 初始化提醒事件Stream
	if err := client.setupStreams(); err != nil {
		log.Printf("警告: 设置Streams失败: %v", err)
	}

	return client, nil
}

// setupStreams 设置提醒事件Stream
func (c *NATSClient) setupStreams() error {
	streamConfig := jetstream.StreamConfig{
		Name:        "ALERTS_STREAM",
		Subjects:    []string{"alerts.*"},
		Description: "价格提醒触发事件流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxBytes:    50 * 1024 * 1024,   // 50MB
		MaxAge:      7 * 24 * time.Hour, // 保留7天
	}

	_, err := c.jetStream.CreateOrUpdateStream(c.ctx, streamConfig)
	if err != nil {
		return fmt.Errorf("创建/更新Stream %s 失败: %w", streamConfig.Name, err)
	}

	log.Printf("Stream %s 设置成功", streamConfig.Name)
	return nil
}

// Publish 发布消息到指定主题
func (c *NATSClient) Publish(subject string, data interface{}) error {
	var payload []byte
	var err error

	switch v := data.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("序列化数据失败: %w", err)
		}
	}

	_, err = c.jetStream.Publish(c.ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}

	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close 关闭连接
func (c *NATSClient) Close() error {
	c.cancel()
	if c.conn != nil {
		c.conn.Close()
	}
	log.Println("NATS连接已关闭")
	return nil
}
