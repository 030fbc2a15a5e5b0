// Package proto adjudicator.proto 메시지와 서비스의 수기 관리 바인딩.
// 와이어 정의를 바꾸면 adjudicator.proto와 함께 갱신한다.
package proto

import "fmt"

// AdjudicateRequest 판정 요청
type AdjudicateRequest struct {
	Direction   string `protobuf:"bytes,1,opt,name=direction,proto3" json:"direction,omitempty"`
	Text        string `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
	Model       string `protobuf:"bytes,3,opt,name=model,proto3" json:"model,omitempty"`
	ContextJson string `protobuf:"bytes,4,opt,name=context_json,json=contextJson,proto3" json:"context_json,omitempty"`
}

func (m *AdjudicateRequest) Reset()         { *m = AdjudicateRequest{} }
func (m *AdjudicateRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*AdjudicateRequest) ProtoMessage()    {}

func (m *AdjudicateRequest) GetDirection() string {
	if m != nil {
		return m.Direction
	}
	return ""
}

func (m *AdjudicateRequest) GetText() string {
	if m != nil {
		return m.Text
	}
	return ""
}

func (m *AdjudicateRequest) GetModel() string {
	if m != nil {
		return m.Model
	}
	return ""
}

func (m *AdjudicateRequest) GetContextJson() string {
	if m != nil {
		return m.ContextJson
	}
	return ""
}

// AdjudicateResponse 판정 응답. PayloadJson은 엄격한 JSON 문자열이다.
type AdjudicateResponse struct {
	PayloadJson string `protobuf:"bytes,1,opt,name=payload_json,json=payloadJson,proto3" json:"payload_json,omitempty"`
	Model       string `protobuf:"bytes,2,opt,name=model,proto3" json:"model,omitempty"`
	LatencyMs   int64  `protobuf:"varint,3,opt,name=latency_ms,json=latencyMs,proto3" json:"latency_ms,omitempty"`
}

func (m *AdjudicateResponse) Reset()         { *m = AdjudicateResponse{} }
func (m *AdjudicateResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*AdjudicateResponse) ProtoMessage()    {}

func (m *AdjudicateResponse) GetPayloadJson() string {
	if m != nil {
		return m.PayloadJson
	}
	return ""
}

func (m *AdjudicateResponse) GetModel() string {
	if m != nil {
		return m.Model
	}
	return ""
}

func (m *AdjudicateResponse) GetLatencyMs() int64 {
	if m != nil {
		return m.LatencyMs
	}
	return 0
}

// ModelRequest 모델 로드/언로드 요청
type ModelRequest struct {
	Model string `protobuf:"bytes,1,opt,name=model,proto3" json:"model,omitempty"`
}

func (m *ModelRequest) Reset()         { *m = ModelRequest{} }
func (m *ModelRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*ModelRequest) ProtoMessage()    {}

func (m *ModelRequest) GetModel() string {
	if m != nil {
		return m.Model
	}
	return ""
}

// ModelStatus 모델 상태
type ModelStatus struct {
	Model string `protobuf:"bytes,1,opt,name=model,proto3" json:"model,omitempty"`
	State string `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
}

func (m *ModelStatus) Reset()         { *m = ModelStatus{} }
func (m *ModelStatus) String() string { return fmt.Sprintf("%+v", *m) }
func (*ModelStatus) ProtoMessage()    {}

func (m *ModelStatus) GetModel() string {
	if m != nil {
		return m.Model
	}
	return ""
}

func (m *ModelStatus) GetState() string {
	if m != nil {
		return m.State
	}
	return ""
}

// HealthCheckRequest 상태 확인 요청
type HealthCheckRequest struct {
	Service string `protobuf:"bytes,1,opt,name=service,proto3" json:"service,omitempty"`
}

func (m *HealthCheckRequest) Reset()         { *m = HealthCheckRequest{} }
func (m *HealthCheckRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*HealthCheckRequest) ProtoMessage()    {}

func (m *HealthCheckRequest) GetService() string {
	if m != nil {
		return m.Service
	}
	return ""
}

// HealthCheckResponse 상태 확인 응답
type HealthCheckResponse struct {
	Status string `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

func (m *HealthCheckResponse) Reset()         { *m = HealthCheckResponse{} }
func (m *HealthCheckResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*HealthCheckResponse) ProtoMessage()    {}

func (m *HealthCheckResponse) GetStatus() string {
	if m != nil {
		return m.Status
	}
	return ""
}
