// Package threat 수신 메시지의 위협 패턴 매칭과 가산식 점수 계산.
package threat

import (
	"fmt"
	"strings"

	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
)

// CategoryNormal 위협이 없을 때의 분류 코드
const CategoryNormal = "NORMAL"

// ScenarioMatch 알려진 사기 시나리오 매칭 결과
type ScenarioMatch struct {
	ID         string
	NameKo     string
	Category   string
	Coverage   float64
	Confidence string // high / medium / low
}

// Result 위협 분석 결과. 내부 점수는 0-150, 확률은 0-100으로 선형 변환된다.
type Result struct {
	Findings          []core.ThreatFinding
	MatchedPatternIDs []string
	Scenario          *ScenarioMatch
	InternalScore     int
	Probability       int
	Level             core.RiskLevel
	Category          string
	CategoryName      string
	SuspiciousURL     bool
	CredentialRequest bool
	Reasons           []core.Reason
}

// Matcher 카탈로그 기반 위협 매처
type Matcher struct {
	loader *catalog.Loader
}

// NewMatcher 매처 생성
func NewMatcher(loader *catalog.Loader) *Matcher {
	return &Matcher{loader: loader}
}

// Analyze 위협 패턴 매칭 → 시나리오 커버리지 → 가산식 점수 순으로 평가한다.
// 키워드 패턴은 키워드 1개 이상, context_keywords가 선언되어 있으면
// 컨텍스트 키워드도 1개 이상 있어야 매칭된다 (두 집합의 논리곱).
func (m *Matcher) Analyze(text string, identifiers []core.Identifier, ext *extract.Extractor) Result {
	cat := m.loader.Threat()
	result := Result{Category: CategoryNormal, Level: core.RiskSafe, Reasons: []core.Reason{}}
	if cat == nil || text == "" {
		return result
	}

	matched := map[string]bool{}
	for _, entry := range cat.Entries {
		tokens := matchEntry(entry, text)
		if tokens == nil {
			continue
		}
		matched[entry.PatternID] = true
		result.MatchedPatternIDs = append(result.MatchedPatternIDs, entry.PatternID)
		result.Findings = append(result.Findings, core.ThreatFinding{
			CategoryID:    entry.CategoryCode,
			PatternID:     entry.PatternID,
			NameKo:        entry.NameKo,
			Level:         entry.Level,
			MatchedTokens: tokens,
		})
		result.Reasons = append(result.Reasons, core.Reason{
			Source:      "threat_matcher",
			Description: fmt.Sprintf("%s 패턴 감지 (%s)", entry.NameKo, entry.CategoryNameKo),
			ScoreImpact: float64(cat.Scoring.BasePoints[entry.Level.String()]),
			Weight:      entry.Weight,
		})
	}

	// 시나리오 커버리지: 매칭 패턴 집합과 필수 패턴 집합의 포함 비율
	result.Scenario = bestScenario(cat, matched)

	// 보너스 판정 재료
	// 화이트리스트가 아닌 URL은 전부 의심 대상, 단축 URL은 항상 의심 대상
	for _, id := range identifiers {
		if id.Type != core.IdentURL {
			continue
		}
		if !id.Safe || (ext != nil && ext.IsShortURL(id.Canonical)) {
			result.SuspiciousURL = true
			break
		}
	}
	for _, credID := range cat.Scoring.CredentialPatternIDs {
		if matched[credID] {
			result.CredentialRequest = true
			break
		}
	}

	m.score(cat, &result)
	m.classify(cat, &result)
	return result
}

// score 가산식 점수: 레벨별 기본 점수 합 + 유계 보너스. 곱셈 에스컬레이션 없음.
func (m *Matcher) score(cat *catalog.Threat, result *Result) {
	score := 0
	for _, f := range result.Findings {
		score += cat.Scoring.BasePoints[f.Level.String()]
	}

	if score > 0 && result.SuspiciousURL {
		score += cat.Scoring.Bonuses.SuspiciousURL
		result.Reasons = append(result.Reasons, core.Reason{
			Source:      "threat_matcher",
			Description: "의심스러운 URL이 포함되어 있습니다",
			ScoreImpact: float64(cat.Scoring.Bonuses.SuspiciousURL),
			Weight:      1.0,
		})
	}
	if result.CredentialRequest {
		score += cat.Scoring.Bonuses.CredentialRequest
		result.Reasons = append(result.Reasons, core.Reason{
			Source:      "threat_matcher",
			Description: "인증정보를 요구하고 있습니다",
			ScoreImpact: float64(cat.Scoring.Bonuses.CredentialRequest),
			Weight:      1.0,
		})
	}
	if result.Scenario != nil && result.Scenario.Confidence != "low" {
		score += cat.Scoring.Bonuses.KnownScenario
		result.Reasons = append(result.Reasons, core.Reason{
			Source:      "scenario_match",
			Description: fmt.Sprintf("'%s' 시나리오와 일치합니다 (커버리지 %.0f%%)", result.Scenario.NameKo, result.Scenario.Coverage*100),
			ScoreImpact: float64(cat.Scoring.Bonuses.KnownScenario),
			Weight:      1.0,
		})
	}

	if score > cat.Scoring.MaxInternalScore {
		score = cat.Scoring.MaxInternalScore
	}
	result.InternalScore = score
	result.Probability = score * 100 / cat.Scoring.MaxInternalScore
}

// classify 내부 점수 → 위협 레벨, 대표 분류 코드 결정
func (m *Matcher) classify(cat *catalog.Threat, result *Result) {
	t := cat.Scoring.LevelThresholds
	switch {
	case result.InternalScore >= t.Critical:
		result.Level = core.RiskCritical
	case result.InternalScore >= t.Dangerous:
		result.Level = core.RiskHigh
	case result.InternalScore >= t.Suspicious:
		result.Level = core.RiskMedium
	case result.InternalScore > 0:
		result.Level = core.RiskLow
	default:
		result.Level = core.RiskSafe
	}

	if result.Scenario != nil && result.Scenario.Confidence != "low" {
		result.Category = result.Scenario.Category
		result.CategoryName = cat.CategoryNameKo(result.Scenario.Category)
		return
	}
	if len(result.Findings) == 0 {
		result.Category = CategoryNormal
		return
	}
	// 시나리오 매칭이 없으면 가장 강한 탐지의 분류를 대표로 쓴다
	best := result.Findings[0]
	for _, f := range result.Findings[1:] {
		if f.Level > best.Level {
			best = f
		}
	}
	result.Category = best.CategoryID
	result.CategoryName = cat.CategoryNameKo(best.CategoryID)
}

// matchEntry 패턴 1건 매칭. 매칭 토큰을 반환하고 불일치 시 nil.
func matchEntry(entry catalog.ThreatEntry, text string) []string {
	if entry.Re != nil {
		if m := entry.Re.FindString(text); m != "" {
			return []string{m}
		}
		return nil
	}

	var tokens []string
	for _, kw := range entry.Keywords {
		if strings.Contains(text, kw) {
			tokens = append(tokens, kw)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	if len(entry.ContextKeywords) > 0 {
		hasContext := false
		for _, kw := range entry.ContextKeywords {
			if strings.Contains(text, kw) {
				tokens = append(tokens, kw)
				hasContext = true
			}
		}
		if !hasContext {
			return nil
		}
	}
	return tokens
}

// bestScenario 커버리지 최대 시나리오 선택 (시나리오 id 순으로 결정적)
func bestScenario(cat *catalog.Threat, matched map[string]bool) *ScenarioMatch {
	var best *ScenarioMatch
	for _, s := range cat.Scenarios {
		hit := 0
		for _, pid := range s.Required {
			if matched[pid] {
				hit++
			}
		}
		if hit == 0 {
			continue
		}
		coverage := float64(hit) / float64(len(s.Required))
		if best == nil || coverage > best.Coverage {
			best = &ScenarioMatch{
				ID:         s.ID,
				NameKo:     s.NameKo,
				Category:   s.Category,
				Coverage:   coverage,
				Confidence: confidenceBucket(coverage),
			}
		}
	}
	return best
}

// confidenceBucket 커버리지 → 신뢰도 버킷 (0.5 경계는 medium)
func confidenceBucket(coverage float64) string {
	switch {
	case coverage >= 0.8:
		return "high"
	case coverage >= 0.5:
		return "medium"
	default:
		return "low"
	}
}
