// Package fusion 규칙·DB·대화 신호를 단일 사기 확률로 융합한다.
package fusion

import (
	"github.com/akfldk1028/KAT-sub000/internal/core"
)

const (
	// ConfidenceMargin 융합 확률의 신뢰 구간 반폭
	ConfidenceMargin = 0.08
	// TrustDemotionThreshold 이 값을 넘는 신뢰 발신자는 확률이 강등된다
	TrustDemotionThreshold = 0.8
	// TrustDemotionFactor 유일하게 허용되는 확률 강등 배율
	TrustDemotionFactor = 0.3
)

// Signals 융합기 입력. 모든 값은 0-1 스케일.
type Signals struct {
	TextProbability float64 // 텍스트 패턴 분석 확률
	DBPrior         float64 // 신고 DB 사전 확률 (식별자 중 최댓값)
	TrustRisk       float64 // 발신자 신뢰 결핍 위험
	TimeRisk        float64 // 수신 시각 위험
	Trust           float64 // 정규화된 발신자 신뢰도
}

// Outcome 융합 결과
type Outcome struct {
	Probability    float64 // 강등 적용 후, 0-1
	RawProbability float64 // 강등 적용 전, 0-1
	Low            float64 // 신뢰 구간 하한
	High           float64 // 신뢰 구간 상한
	Level          core.RiskLevel
	Demoted        bool // 신뢰 발신자 강등 적용 여부
}

// Percent 0-100 정수 확률
func (o Outcome) Percent() int {
	return int(o.Probability*100 + 0.5)
}

// Fuser 신호 융합기
type Fuser interface {
	Fuse(s Signals) Outcome
	Name() string
}

// Select 설정된 모드의 융합기를 반환한다. 알 수 없는 모드는 staged.
func Select(mode string) Fuser {
	if mode == "bayesian" {
		return &BayesianFuser{}
	}
	return &StagedFuser{}
}

// finalize 강등, 신뢰 구간, 등급 산정 공통 처리
func finalize(p, trust float64) Outcome {
	raw := clamp01(p)
	p = raw
	demoted := false
	if trust > TrustDemotionThreshold {
		p *= TrustDemotionFactor
		demoted = true
	}
	return Outcome{
		Probability:    p,
		RawProbability: raw,
		Low:            clamp01(p - ConfidenceMargin),
		High:           clamp01(p + ConfidenceMargin),
		Level:          levelOf(p),
		Demoted:        demoted,
	}
}

func levelOf(p float64) core.RiskLevel {
	switch {
	case p >= 0.8:
		return core.RiskCritical
	case p >= 0.6:
		return core.RiskHigh
	case p >= 0.4:
		return core.RiskMedium
	case p >= 0.2:
		return core.RiskLow
	default:
		return core.RiskSafe
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
