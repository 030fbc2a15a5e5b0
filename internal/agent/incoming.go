package agent

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akfldk1028/KAT-sub000/internal/action"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/fusion"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
	"github.com/akfldk1028/KAT-sub000/internal/llm"
	"github.com/akfldk1028/KAT-sub000/internal/logging"
	"github.com/akfldk1028/KAT-sub000/internal/metrics"
	"github.com/akfldk1028/KAT-sub000/internal/normalize"
	"github.com/akfldk1028/KAT-sub000/internal/threat"
)

// financialCategories 금전 요구로 간주하는 위협 분류
var financialCategories = map[string]bool{
	"A-1": true,
	"C-1": true,
	"C-2": true,
}

// IncomingAgent 수신(안심 가드) 분석 에이전트
type IncomingAgent struct {
	extractor   *extract.Extractor
	matcher     *threat.Matcher
	intel       *intel.Aggregator
	trust       *conversation.Analyzer
	fuser       fusion.Fuser
	policy      *action.Policy
	adjudicator *llm.Adjudicator
	audit       *logging.AuditLogger
	cfg         config.AnalyzerConfig
	clock       func() time.Time
}

// Analyze 수신 텍스트를 분석해 사기 확률과 대응 정책을 반환한다
func (a *IncomingAgent) Analyze(ctx context.Context, req core.AnalyzeIncomingRequest) (core.AnalysisResponse, error) {
	start := time.Now()
	if err := validateText(req.Text, a.cfg.MaxTextBytes); err != nil {
		metrics.RecordAnalysisError("incoming", "invalid_request")
		return core.AnalysisResponse{}, err
	}

	resp := core.AnalysisResponse{
		RequestID:       newRequestID(),
		RiskLevel:       core.RiskLow,
		Reasons:         []core.Reason{},
		ScamProbability: core.IntProbability(0),
	}
	if req.Text == "" {
		resp.RecommendedAction = action.ActionInfo
		a.finish(resp, start, 0)
		return resp, nil
	}

	normalized := normalize.Normalize(req.Text)
	identifiers := a.extractor.Extract(normalized)
	textResult := a.matcher.Analyze(normalized, identifiers, a.extractor)
	financial := textResult.CredentialRequest || financialCategories[textResult.Category]

	// 신고 DB 조회와 발신자 신뢰 분석은 독립적이므로 병렬 수행
	var reports []intel.Report
	var profile conversation.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if a.intel != nil {
			reports = a.intel.CheckAll(gctx, identifiers)
		}
		return nil
	})
	g.Go(func() error {
		if a.trust != nil {
			profile = a.trust.AnalyzeWithHistory(gctx, req.SenderID, req.ReceiverID,
				len(req.History), a.clock(), financial)
		} else {
			profile = conversation.BuildProfile(conversation.ContactStats{}, a.clock(), financial)
		}
		return nil
	})
	g.Wait()

	outcome := a.fuser.Fuse(fusion.Signals{
		TextProbability: float64(textResult.Probability) / 100,
		DBPrior:         maxPrior(reports),
		TrustRisk:       1 - profile.NormalizedTrust(),
		TimeRisk:        timeRisk(profile.TimeAdjust),
		Trust:           profile.NormalizedTrust(),
	})

	category := textResult.Category
	categoryName := textResult.CategoryName
	probability := textResult.Probability
	var llmReasons []core.Reason
	if a.cfg.EnableLLM && a.adjudicator != nil {
		override := a.adjudicator.ReviewIncoming(ctx, normalized, category, probability)
		if override.Apply {
			category = override.Category
			probability = override.Probability
			llmReasons = override.Reasons
		}
	}

	scenarioID := ""
	if textResult.Scenario != nil && textResult.Scenario.Confidence != "low" {
		scenarioID = textResult.Scenario.ID
	}
	decision := a.policy.DecideIncoming(action.IncomingInput{
		TextLevel:        textResult.Level,
		Category:         category,
		ScenarioID:       scenarioID,
		FusedLevel:       outcome.Level,
		FusedProbability: outcome.Percent(),
		Reports:          reports,
		Profile:          profile,
	})

	finalProb := outcome.Percent()
	if combined := decision.CombinedScore; combined > finalProb {
		finalProb = combined
	}
	if probability > finalProb && !outcome.Demoted {
		finalProb = probability
	}
	if finalProb > 100 {
		finalProb = 100
	}

	// 근거 순서: 규칙 → 신고 DB → 발신자 신뢰 → 수신 시각
	reasons := make([]core.Reason, 0,
		len(textResult.Reasons)+len(decision.Reasons)+len(profile.Reasons)+len(llmReasons)+1)
	reasons = append(reasons, textResult.Reasons...)
	reasons = append(reasons, decision.Reasons...)
	reasons = append(reasons, profile.Reasons...)
	if outcome.Demoted && outcome.RawProbability > outcome.Probability {
		reasons = append(reasons, core.Reason{
			Source:      "fusion",
			Description: "오랜 신뢰 관계가 확인된 발신자로 위험도를 하향 조정했습니다",
			ScoreImpact: -(outcome.RawProbability - outcome.Probability) * 100,
			Weight:      1.0,
		})
	}
	reasons = append(reasons, llmReasons...)

	resp.RiskLevel = decision.Level
	resp.Reasons = reasons
	resp.RecommendedAction = decision.Action
	resp.Category = category
	resp.CategoryName = decision.CategoryName
	if resp.CategoryName == "" {
		resp.CategoryName = categoryName
	}
	resp.ScamProbability = core.IntProbability(finalProb)
	resp.Message = decision.Message
	resp.Steps = decision.Steps
	resp.Contacts = decision.Contacts

	if a.trust != nil && req.SenderID != "" {
		a.trust.Record(ctx, req.SenderID, req.ReceiverID, a.clock())
	}
	if category != "" && category != threat.CategoryNormal {
		metrics.RecordDetection("incoming", category, decision.Level.String())
	}
	metrics.RecordScamProbability(finalProb)
	a.finish(resp, start, len(textResult.Findings))
	return resp, nil
}

func (a *IncomingAgent) finish(resp core.AnalysisResponse, start time.Time, findings int) {
	metrics.RecordAnalysis("incoming", resp.RiskLevel.String(), time.Since(start))
	if a.audit != nil {
		probability := 0
		if resp.ScamProbability != nil {
			probability = *resp.ScamProbability
		}
		a.audit.Write(core.AnalysisLog{
			RequestID:       resp.RequestID,
			Agent:           "incoming",
			RiskLevel:       resp.RiskLevel.String(),
			Category:        resp.Category,
			ScamProbability: probability,
			FindingCount:    findings,
			DurationMs:      durationMs(start),
		})
	}
}

func maxPrior(reports []intel.Report) float64 {
	var max float64
	for _, rep := range reports {
		if p := rep.Prior(); p > max {
			max = p
		}
	}
	return max
}

// timeRisk 수신 시각 보정치를 0-1 위험 신호로 변환한다
func timeRisk(adjust int) float64 {
	switch {
	case adjust > 0:
		return 1
	case adjust < 0:
		return 0
	default:
		return 0.25
	}
}
