// Package llm 경량 LLM 판정 클라이언트와 규칙 결과 재판정 로직.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/llm/proto"
	"github.com/akfldk1028/KAT-sub000/internal/metrics"
)

// Client 판정 서버 호출 인터페이스. 테스트에서 가짜 구현으로 대체된다.
type Client interface {
	Adjudicate(ctx context.Context, direction, text, contextJSON string) (string, error)
	LoadModel(ctx context.Context, model string) (string, error)
	UnloadModel(ctx context.Context, model string) (string, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// GRPCClient 판정 서버 gRPC 클라이언트
type GRPCClient struct {
	client proto.AdjudicatorClient
	conn   *grpc.ClientConn
	config *config.LLMConfig
}

// NewGRPCClient gRPC 클라이언트 생성
func NewGRPCClient(llmConfig *config.LLMConfig) (*GRPCClient, error) {
	serviceConfig := `{
		"loadBalancingConfig": [{"round_robin":{}}],
		"methodConfig": [{
			"name": [{"service": "adjudicator.Adjudicator"}],
			"retryPolicy": {
				"maxAttempts": 3,
				"initialBackoff": "0.1s",
				"maxBackoff": "1s",
				"backoffMultiplier": 2,
				"retryableStatusCodes": ["UNAVAILABLE", "DEADLINE_EXCEEDED"]
			}
		}]
	}`

	keepAliveParams := keepalive.ClientParameters{
		Time:                llmConfig.KeepAlive,
		Timeout:             time.Second * 5,
		PermitWithoutStream: true,
	}

	conn, err := grpc.Dial(llmConfig.ServerAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(serviceConfig),
		grpc.WithKeepaliveParams(keepAliveParams),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(llmConfig.MaxMessageSize),
			grpc.MaxCallSendMsgSize(llmConfig.MaxMessageSize),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to adjudicator server: %w", err)
	}

	return &GRPCClient{
		client: proto.NewAdjudicatorClient(conn),
		conn:   conn,
		config: llmConfig,
	}, nil
}

// Adjudicate 텍스트 판정 호출. 엄격한 JSON payload 문자열을 반환한다.
func (c *GRPCClient) Adjudicate(ctx context.Context, direction, text, contextJSON string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Adjudicate(ctx, &proto.AdjudicateRequest{
		Direction:   direction,
		Text:        strings.ToValidUTF8(text, ""),
		Model:       c.config.Model,
		ContextJson: contextJSON,
	})
	if err != nil {
		return "", fmt.Errorf("adjudication failed: %w", err)
	}
	metrics.RecordLLMInference(c.config.Model, time.Since(start))
	return resp.GetPayloadJson(), nil
}

// LoadModel 모델 로드 요청
func (c *GRPCClient) LoadModel(ctx context.Context, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	status, err := c.client.LoadModel(ctx, &proto.ModelRequest{Model: model})
	if err != nil {
		return "", fmt.Errorf("model load failed: %w", err)
	}
	return status.GetState(), nil
}

// UnloadModel 모델 언로드 요청
func (c *GRPCClient) UnloadModel(ctx context.Context, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	status, err := c.client.UnloadModel(ctx, &proto.ModelRequest{Model: model})
	if err != nil {
		return "", fmt.Errorf("model unload failed: %w", err)
	}
	return status.GetState(), nil
}

// HealthCheck 서버 상태 확인
func (c *GRPCClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	_, err := c.client.HealthCheck(ctx, &proto.HealthCheckRequest{Service: "adjudicator"})
	return err
}

// Close 연결 종료
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
