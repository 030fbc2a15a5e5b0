package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RiskLevel 위험도 레벨 (순서형: 상향만 허용, 하향은 명시적 컨텍스트 규칙에서만)
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskLevelNames = map[RiskLevel]string{
	RiskSafe:     "SAFE",
	RiskLow:      "LOW",
	RiskMedium:   "MEDIUM",
	RiskHigh:     "HIGH",
	RiskCritical: "CRITICAL",
}

func (r RiskLevel) String() string {
	if name, ok := riskLevelNames[r]; ok {
		return name
	}
	return "SAFE"
}

// ParseRiskLevel 문자열을 RiskLevel로 변환 (알 수 없는 값은 SAFE)
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SAFE":
		return RiskSafe, nil
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	case "CRITICAL":
		return RiskCritical, nil
	}
	return RiskSafe, fmt.Errorf("unknown risk level %q", s)
}

func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// MaxRisk 두 레벨 중 높은 쪽 반환
func MaxRisk(a, b RiskLevel) RiskLevel {
	if a > b {
		return a
	}
	return b
}

// IdentifierType 추출 식별자 유형
type IdentifierType string

const (
	IdentPhone      IdentifierType = "phone"
	IdentAccount    IdentifierType = "account"
	IdentCard       IdentifierType = "card"
	IdentURL        IdentifierType = "url"
	IdentEmail      IdentifierType = "email"
	IdentResidentID IdentifierType = "resident_id"
	IdentPassport   IdentifierType = "passport"
	IdentDriverLic  IdentifierType = "driver_license"
)

// Identifier 정규화된 식별자. Canonical은 숫자만 남기거나 소문자 URL로 통일된 값.
type Identifier struct {
	Type      IdentifierType `json:"type"`
	Raw       string         `json:"raw"`
	Canonical string         `json:"canonical"`
	Safe      bool           `json:"safe"` // 화이트리스트 도메인 등 평판 조회 제외 대상
}

// FindingSource 탐지 결과 출처
type FindingSource string

const (
	SourceRule FindingSource = "rule"
	SourceLLM  FindingSource = "llm"
)

// PIIFinding 발신 분석에서 감지된 민감정보 항목. 생성 후 불변.
type PIIFinding struct {
	CategoryID string        `json:"category_id"`
	ItemID     string        `json:"item_id"`
	NameKo     string        `json:"name_ko"`
	Value      string        `json:"value"`
	Tier       int           `json:"tier"`
	Level      RiskLevel     `json:"risk_level"`
	Position   int           `json:"position"`
	Source     FindingSource `json:"source"`
}

// ThreatFinding 수신 분석에서 매칭된 위협 패턴
type ThreatFinding struct {
	CategoryID    string    `json:"category_id"` // 폐쇄 분류 코드 (A-1..C-3)
	PatternID     string    `json:"pattern_id"`
	NameKo        string    `json:"name_ko"`
	Level         RiskLevel `json:"risk_level"`
	MatchedTokens []string  `json:"matched_tokens"`
}

// Reason 응답 근거 항목. 기여 컴포넌트가 명시되고 영향도는 0이 아니어야 한다.
type Reason struct {
	Source      string  `json:"source"`
	Description string  `json:"description"`
	ScoreImpact float64 `json:"score_impact"`
	Weight      float64 `json:"weight"`
}

// AnalyzeOutgoingRequest 발신(안심 전송) 분석 요청
type AnalyzeOutgoingRequest struct {
	Text string `json:"text"`
}

// AnalyzeIncomingRequest 수신(안심 가드) 분석 요청
type AnalyzeIncomingRequest struct {
	Text       string   `json:"text"`
	SenderID   string   `json:"sender_id,omitempty"`
	ReceiverID string   `json:"receiver_id,omitempty"`
	History    []string `json:"conversation_history,omitempty"`
}

// AnalysisResponse 공통 분석 응답.
// ScamProbability는 수신 분석에서만 채워진다 (0-100).
type AnalysisResponse struct {
	RequestID           string    `json:"request_id,omitempty"`
	RiskLevel           RiskLevel `json:"risk_level"`
	Reasons             []Reason  `json:"reasons"`
	RecommendedAction   string    `json:"recommended_action"`
	IsSecretRecommended bool      `json:"is_secret_recommended"`
	Category            string    `json:"category,omitempty"`
	CategoryName        string    `json:"category_name,omitempty"`
	ScamProbability     *int      `json:"scam_probability,omitempty"`
	MaskedText          string    `json:"masked_text,omitempty"`
	Message             string    `json:"message,omitempty"`
	Steps               []string  `json:"steps,omitempty"`
	Contacts            []Contact `json:"emergency_contacts,omitempty"`
}

// Contact 응답에 동봉되는 긴급 연락처
type Contact struct {
	NameKo string `json:"name_ko"`
	Number string `json:"number"`
}

// AnalysisLog 분석 감사 로그 레코드 (NDJSON 한 줄)
type AnalysisLog struct {
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id"`
	Agent           string    `json:"agent"`
	RiskLevel       string    `json:"risk_level"`
	Category        string    `json:"category,omitempty"`
	ScamProbability int       `json:"scam_probability,omitempty"`
	FindingCount    int       `json:"finding_count"`
	DurationMs      int64     `json:"duration_ms"`
	MaskedText      string    `json:"masked_text,omitempty"`
}

// IntProbability 0-100 정수 확률 포인터 헬퍼
func IntProbability(v int) *int {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}
