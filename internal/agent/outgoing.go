package agent

import (
	"context"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/action"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/llm"
	"github.com/akfldk1028/KAT-sub000/internal/logging"
	"github.com/akfldk1028/KAT-sub000/internal/metrics"
	"github.com/akfldk1028/KAT-sub000/internal/normalize"
	"github.com/akfldk1028/KAT-sub000/internal/pii"
)

// OutgoingAgent 발신(안심 전송) 분석 에이전트.
// 외부 프로바이더는 호출하지 않으므로 외부 장애가 발신 등급을
// 올리는 일은 없다.
type OutgoingAgent struct {
	matcher     *pii.Matcher
	policy      *action.Policy
	adjudicator *llm.Adjudicator
	audit       *logging.AuditLogger
	cfg         config.AnalyzerConfig
}

// Analyze 발신 텍스트를 분석해 위험 등급과 시크릿 전송 권장을 반환한다
func (a *OutgoingAgent) Analyze(ctx context.Context, req core.AnalyzeOutgoingRequest) (core.AnalysisResponse, error) {
	start := time.Now()
	if err := validateText(req.Text, a.cfg.MaxTextBytes); err != nil {
		metrics.RecordAnalysisError("outgoing", "invalid_request")
		return core.AnalysisResponse{}, err
	}

	resp := core.AnalysisResponse{
		RequestID: newRequestID(),
		RiskLevel: core.RiskLow,
		Reasons:   []core.Reason{},
	}

	// 게이트는 정규화 결과에 건다. 한글 숫자 난독화는 원문에 숫자 런이
	// 없어도 정규화 후에는 나타난다.
	normalized := normalize.Normalize(req.Text)
	if req.Text == "" || !normalize.SuspiciousShape(normalized) {
		decision := a.policy.DecideOutgoing(core.RiskLow, false)
		resp.RecommendedAction = decision.Action
		a.finish(resp, start, 0, "")
		return resp, nil
	}

	result := a.matcher.Analyze(normalized)

	if a.cfg.EnableLLM && a.adjudicator != nil {
		merged := a.adjudicator.ReviewOutgoing(ctx, normalized, result.Findings)
		if len(merged) > len(result.Findings) {
			result = a.matcher.Evaluate(merged)
		}
	}

	masked := ""
	if len(result.Findings) > 0 {
		masked = pii.MaskFindings(normalized, result.Findings)
	}

	decision := a.policy.DecideOutgoing(result.Level, result.SecretRecommended)
	resp.RiskLevel = result.Level
	if resp.RiskLevel < core.RiskLow {
		resp.RiskLevel = core.RiskLow
	}
	resp.Reasons = result.Reasons
	resp.RecommendedAction = decision.Action
	resp.IsSecretRecommended = result.SecretRecommended
	resp.MaskedText = masked
	resp.Message = decision.Message
	resp.Steps = decision.Steps

	for _, f := range result.Findings {
		metrics.RecordDetection("outgoing", f.CategoryID, f.Level.String())
	}
	a.finish(resp, start, len(result.Findings), masked)
	return resp, nil
}

func (a *OutgoingAgent) finish(resp core.AnalysisResponse, start time.Time, findings int, masked string) {
	metrics.RecordAnalysis("outgoing", resp.RiskLevel.String(), time.Since(start))
	if a.audit != nil {
		a.audit.Write(core.AnalysisLog{
			RequestID:    resp.RequestID,
			Agent:        "outgoing",
			RiskLevel:    resp.RiskLevel.String(),
			FindingCount: findings,
			DurationMs:   durationMs(start),
			MaskedText:   masked,
		})
	}
}
