// Package pii 발신 메시지의 민감정보 계층 분석 (Tier 1/2/3 + 조합 규칙).
package pii

import (
	"fmt"

	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/normalize"
)

// 레벨별 근거 점수 (reason의 score_impact 용)
var levelPoints = map[core.RiskLevel]float64{
	core.RiskLow:      10,
	core.RiskMedium:   25,
	core.RiskHigh:     40,
	core.RiskCritical: 60,
}

// Result 민감정보 분석 결과
type Result struct {
	Findings          []core.PIIFinding
	Level             core.RiskLevel
	SecretRecommended bool
	Reasons           []core.Reason
}

// Matcher 카탈로그 기반 민감정보 매처. 카탈로그 핫스왑을 따라간다.
type Matcher struct {
	loader *catalog.Loader
}

// NewMatcher 매처 생성
func NewMatcher(loader *catalog.Loader) *Matcher {
	return &Matcher{loader: loader}
}

// Analyze 정규화된 텍스트에서 민감정보를 탐지하고 조합 규칙을 적용한다.
// Tier가 낮은(위험한) 패턴이 먼저 구간을 점유하며, 겹치는 후순위 매칭은 버린다.
// 계좌/카드 패턴은 전화번호 구간을 마스킹한 텍스트에서 매칭한다.
func (m *Matcher) Analyze(text string) Result {
	cat := m.loader.PII()
	if cat == nil || text == "" {
		return Result{Level: core.RiskLow, Reasons: []core.Reason{}}
	}

	phoneMasked := normalize.MaskPhones(text)

	var findings []core.PIIFinding
	claimed := make([][2]int, 0, 8)

	overlaps := func(start, end int) bool {
		for _, r := range claimed {
			if start < r[1] && end > r[0] {
				return true
			}
		}
		return false
	}

	for _, entry := range cat.Entries {
		haystack := text
		if entry.ItemID == "account" || entry.ItemID == "card" || entry.ItemID == "driver_license" {
			haystack = phoneMasked
		}
		for _, loc := range entry.Re.FindAllStringIndex(haystack, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			findings = append(findings, core.PIIFinding{
				CategoryID: entry.CategoryID,
				ItemID:     entry.ItemID,
				NameKo:     entry.NameKo,
				Value:      haystack[loc[0]:loc[1]],
				Tier:       entry.Tier,
				Level:      entry.Level,
				Position:   loc[0],
				Source:     core.SourceRule,
			})
		}
	}

	return m.Evaluate(findings)
}

// Evaluate 탐지 목록에 조합 규칙을 적용해 최종 레벨을 계산한다.
// LLM 병합 경로에서 합집합 재평가에도 쓰인다.
func (m *Matcher) Evaluate(findings []core.PIIFinding) Result {
	cat := m.loader.PII()
	result := Result{Findings: findings, Level: core.RiskLow, Reasons: []core.Reason{}}
	if cat == nil || len(findings) == 0 {
		return result
	}

	present := map[string]bool{}
	tier3 := map[string]bool{}
	reported := map[string]bool{}
	for _, f := range findings {
		present[f.ItemID] = true
		if f.Tier == 3 {
			tier3[f.ItemID] = true
		}
		result.Level = core.MaxRisk(result.Level, f.Level)
		if !reported[f.ItemID] {
			reported[f.ItemID] = true
			result.Reasons = append(result.Reasons, core.Reason{
				Source:      "pii_matcher",
				Description: fmt.Sprintf("%s 패턴이 감지되었습니다", f.NameKo),
				ScoreImpact: levelPoints[f.Level],
				Weight:      1.0,
			})
		}
	}

	// 조합 규칙: 적용 가능한 규칙을 모두 평가하고 최댓값을 유지
	for _, rule := range cat.Rules {
		if !ruleApplies(rule, present, len(tier3)) {
			continue
		}
		raised := rule.RaiseLevel()
		if raised > result.Level {
			result.Level = raised
		}
		result.Reasons = append(result.Reasons, core.Reason{
			Source:      "combination_rule",
			Description: rule.ReasonKo,
			ScoreImpact: levelPoints[raised],
			Weight:      1.0,
		})
	}

	result.SecretRecommended = result.Level >= cat.SecretFrom
	return result
}

func ruleApplies(rule catalog.CombinationRule, present map[string]bool, tier3Count int) bool {
	if rule.MinTier3 > 0 {
		return tier3Count >= rule.MinTier3
	}
	if len(rule.Require) == 0 {
		return false
	}
	for _, id := range rule.Require {
		if !present[id] {
			return false
		}
	}
	return true
}
