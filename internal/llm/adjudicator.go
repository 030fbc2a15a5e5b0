package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/metrics"
)

// verdictPayload 판정 서버가 돌려주는 엄격한 JSON 스키마.
// 알 수 없는 필드가 있으면 전체를 기각하고 규칙 결과로 폴백한다.
type verdictPayload struct {
	PII  []verdictPII `json:"pii"`
	Scam *verdictScam `json:"scam"`
}

type verdictPII struct {
	ItemID   string `json:"item_id"`
	Value    string `json:"value"`
	Position int    `json:"position"`
}

type verdictScam struct {
	Category    string   `json:"category"`
	Probability int      `json:"probability"` // 0-100
	Reasons     []string `json:"reasons"`
}

// ScamOverride 수신 판정 결과. Apply가 false면 규칙 결과를 유지한다.
type ScamOverride struct {
	Apply       bool
	Category    string
	Probability int
	Reasons     []core.Reason
}

// Adjudicator 규칙 분석 결과를 경량 LLM으로 재판정한다.
// 판정 서버 실패와 스키마 위반은 모두 규칙 결과 유지로 폴백한다.
type Adjudicator struct {
	client  Client
	loader  *catalog.Loader
	epsilon float64 // 0-1 스케일, 위협 상향에 필요한 최소 확률 차
}

// NewAdjudicator 재판정기 생성
func NewAdjudicator(client Client, loader *catalog.Loader, epsilon float64) *Adjudicator {
	return &Adjudicator{client: client, loader: loader, epsilon: epsilon}
}

// ReviewOutgoing 발신 텍스트 재판정. 규칙 탐지와 LLM 탐지의 합집합을
// 반환한다. LLM은 탐지를 추가할 수만 있고 제거할 수는 없다.
func (a *Adjudicator) ReviewOutgoing(ctx context.Context, text string, ruleFindings []core.PIIFinding) []core.PIIFinding {
	payload, err := a.call(ctx, "outgoing", text, ruleContextJSON(len(ruleFindings), 0))
	if err != nil {
		a.fallback(err)
		return ruleFindings
	}

	merged := ruleFindings
	seen := make(map[string]struct{}, len(ruleFindings))
	for _, f := range ruleFindings {
		seen[findingKey(f.ItemID, f.Position)] = struct{}{}
	}
	cat := a.loader.PII()
	for _, item := range payload.PII {
		entry, ok := lookupEntry(cat, item.ItemID)
		if !ok {
			// 카탈로그에 없는 item은 환각으로 간주
			continue
		}
		key := findingKey(item.ItemID, item.Position)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, core.PIIFinding{
			CategoryID: entry.CategoryID,
			ItemID:     entry.ItemID,
			NameKo:     entry.NameKo,
			Value:      item.Value,
			Tier:       entry.Tier,
			Level:      entry.Level,
			Position:   item.Position,
			Source:     core.SourceLLM,
		})
	}
	return merged
}

// ReviewIncoming 수신 텍스트 재판정. LLM 확률이 규칙 확률을 엡실론
// 이상 상회할 때만 상향 적용한다. 하향은 허용하지 않는다.
func (a *Adjudicator) ReviewIncoming(ctx context.Context, text string, ruleCategory string, ruleProbability int) ScamOverride {
	payload, err := a.call(ctx, "incoming", text, ruleContextJSON(0, ruleProbability))
	if err != nil {
		a.fallback(err)
		return ScamOverride{}
	}
	if payload.Scam == nil {
		return ScamOverride{}
	}

	llmProb := payload.Scam.Probability
	if llmProb < 0 {
		llmProb = 0
	}
	if llmProb > 100 {
		llmProb = 100
	}
	if float64(llmProb)/100 < float64(ruleProbability)/100+a.epsilon {
		return ScamOverride{}
	}
	if !a.loader.Threat().ValidCategory(payload.Scam.Category) {
		return ScamOverride{}
	}

	// 상향 적용된 근거는 규칙 대비 확률 상승분을 기여도로 가진다.
	impact := float64(llmProb - ruleProbability)
	reasons := make([]core.Reason, 0, len(payload.Scam.Reasons))
	for _, r := range payload.Scam.Reasons {
		reasons = append(reasons, core.Reason{
			Source:      "llm_adjudicator",
			Description: r,
			ScoreImpact: impact,
			Weight:      1.0,
		})
	}
	return ScamOverride{
		Apply:       true,
		Category:    payload.Scam.Category,
		Probability: llmProb,
		Reasons:     reasons,
	}
}

func (a *Adjudicator) call(ctx context.Context, direction, text, contextJSON string) (*verdictPayload, error) {
	raw, err := a.client.Adjudicate(ctx, direction, text, contextJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLLMUnavailable, err)
	}
	return parseVerdict(raw)
}

func (a *Adjudicator) fallback(err error) {
	log.Printf("[WARN] LLM 재판정 폴백, 규칙 결과 유지: %v", err)
	metrics.RecordLLMFallback()
}

// parseVerdict 엄격한 JSON 파싱. 알 수 없는 필드, 후행 데이터,
// 비JSON 출력은 모두 기각된다.
func parseVerdict(raw string) (*verdictPayload, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var payload verdictPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLLMMalformed, err)
	}
	if err := ensureEOF(dec); err != nil {
		return nil, err
	}
	return &payload, nil
}

func ensureEOF(dec *json.Decoder) error {
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return fmt.Errorf("%w: trailing data after payload", apperrors.ErrLLMMalformed)
	}
	return nil
}

func lookupEntry(cat *catalog.PII, itemID string) (catalog.PIIEntry, bool) {
	for _, entry := range cat.Entries {
		if entry.ItemID == itemID {
			return entry, true
		}
	}
	return catalog.PIIEntry{}, false
}

func findingKey(itemID string, position int) string {
	return fmt.Sprintf("%s:%d", itemID, position)
}

func ruleContextJSON(ruleFindings, ruleProbability int) string {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(map[string]int{
		"rule_findings":    ruleFindings,
		"rule_probability": ruleProbability,
	})
	return strings.TrimSpace(buf.String())
}

// 모델 상태
const (
	ModelUnloaded = "unloaded"
	ModelLoading  = "loading"
	ModelReady    = "ready"
)

// ModelManager 판정 모델 생애주기 관리자. 로드/언로드는 뮤텍스로
// 직렬화되어 한 번에 한 모델 작업만 진행된다.
type ModelManager struct {
	client Client
	model  string

	mu    sync.Mutex
	state string
}

// NewModelManager 생애주기 관리자 생성
func NewModelManager(client Client, model string) *ModelManager {
	return &ModelManager{client: client, model: model, state: ModelUnloaded}
}

// State 현재 모델 상태
func (m *ModelManager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureReady 모델이 준비될 때까지 로드한다. 이미 준비됐으면 즉시 반환.
func (m *ModelManager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == ModelReady {
		return nil
	}
	m.state = ModelLoading
	if _, err := m.client.LoadModel(ctx, m.model); err != nil {
		m.state = ModelUnloaded
		return fmt.Errorf("%w: %v", apperrors.ErrLLMUnavailable, err)
	}
	m.state = ModelReady
	return nil
}

// Shutdown 모델 언로드
func (m *ModelManager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == ModelUnloaded {
		return
	}
	if _, err := m.client.UnloadModel(ctx, m.model); err != nil {
		log.Printf("[WARN] 모델 언로드 실패: %v", err)
	}
	m.state = ModelUnloaded
}
