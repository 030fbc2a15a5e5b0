// Package action 위험 등급을 사용자 대응 정책으로 변환한다.
package action

import (
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
)

// 권장 조치
const (
	ActionNone           = "none"
	ActionInfo           = "info"
	ActionWarn           = "warn"
	ActionStrongWarn     = "strong_warn"
	ActionBlockRecommend = "block_recommend"
	ActionBlockAndReport = "block_and_report"
)

// actionRank 조치 강도 순위. 오버라이드는 상향만 허용된다.
var actionRank = map[string]int{
	ActionNone:           0,
	ActionInfo:           1,
	ActionWarn:           2,
	ActionStrongWarn:     3,
	ActionBlockRecommend: 4,
	ActionBlockAndReport: 5,
}

// ActionNameKo 조치 코드의 한글 이름
var ActionNameKo = map[string]string{
	ActionNone:           "조치 없음",
	ActionInfo:           "참고 안내",
	ActionWarn:           "주의",
	ActionStrongWarn:     "강력 경고",
	ActionBlockRecommend: "차단 권장",
	ActionBlockAndReport: "차단 및 신고 권장",
}

// combinedTextPoints 종합 점수의 텍스트 등급 기여분
var combinedTextPoints = map[core.RiskLevel]int{
	core.RiskSafe:     0,
	core.RiskLow:      10,
	core.RiskMedium:   40,
	core.RiskHigh:     70,
	core.RiskCritical: 100,
}

// 종합 점수 등급 임계값
const (
	combinedCritical = 90
	combinedHigh     = 60
	combinedMedium   = 30
)

// defaultDBRisk 신고는 있으나 위험 점수가 없는 소스의 기본값
const defaultDBRisk = 80

// Decision 최종 대응 결정
type Decision struct {
	Level         core.RiskLevel
	Action        string
	ActionKo      string
	CategoryName  string
	Message       string
	Steps         []string
	Contacts      []core.Contact
	CombinedScore int
	Reasons       []core.Reason
}

// IncomingInput 수신 결정 입력
type IncomingInput struct {
	TextLevel        core.RiskLevel
	Category         string
	ScenarioID       string // 신뢰도가 낮으면 빈 문자열
	FusedLevel       core.RiskLevel
	FusedProbability int
	Reports          []intel.Report
	Profile          conversation.Profile
}

// Policy 대응 정책 결정기
type Policy struct {
	loader *catalog.Loader
}

// NewPolicy 정책 결정기 생성
func NewPolicy(loader *catalog.Loader) *Policy {
	return &Policy{loader: loader}
}

// DecideIncoming 수신 메시지의 최종 등급과 대응을 결정한다.
// 텍스트·DB·발신자 신호의 종합 점수와 융합 등급 중 높은 쪽을 택하고,
// 시나리오 정책은 조치를 상향하는 방향으로만 적용된다.
func (p *Policy) DecideIncoming(in IncomingInput) Decision {
	cat := p.loader.Threat()

	dbRisk, dbReported := maxDBRisk(in.Reports)
	combined := combinedTextPoints[in.TextLevel] + dbRisk +
		in.Profile.RiskAdjust + in.Profile.TimeAdjust
	if combined < 0 {
		combined = 0
	}

	level := core.MaxRisk(combinedLevel(combined), in.FusedLevel)
	act := incomingAction(level, dbReported)

	d := Decision{
		Level:         level,
		Action:        act,
		CombinedScore: combined,
	}
	if dbReported {
		d.Reasons = append(d.Reasons, core.Reason{
			Source:      "scam_db",
			Description: dbReason(in.Reports),
			ScoreImpact: float64(dbRisk),
			Weight:      1.0,
		})
	}

	// 시나리오 정책 오버라이드 (상향만)
	if policy, ok := cat.ScenarioPolicies[in.ScenarioID]; ok && in.ScenarioID != "" {
		if actionRank[policy.OverrideAction] > actionRank[d.Action] {
			d.Action = policy.OverrideAction
		}
		if policy.SpecialMessage != "" {
			d.Message = policy.SpecialMessage
		}
		if len(policy.Steps) > 0 {
			d.Steps = policy.Steps
		}
	}

	if tpl, ok := cat.Templates[d.Action]; ok {
		if d.Message == "" {
			d.Message = tpl.UserMessage
		}
		if len(d.Steps) == 0 {
			d.Steps = tpl.Steps
		}
	}
	if actionRank[d.Action] >= actionRank[ActionStrongWarn] {
		d.Contacts = contacts(cat.Contacts)
	}
	d.ActionKo = ActionNameKo[d.Action]
	d.CategoryName = cat.CategoryNameKo(in.Category)
	return d
}

func contacts(entries []catalog.EmergencyContact) []core.Contact {
	out := make([]core.Contact, 0, len(entries))
	for _, e := range entries {
		out = append(out, core.Contact{NameKo: e.NameKo, Number: e.Number})
	}
	return out
}

// DecideOutgoing 발신 메시지의 대응을 결정한다. 발신 방향에는
// 신고 조치가 없으므로 최고 조치는 강력 경고다.
func (p *Policy) DecideOutgoing(level core.RiskLevel, secretRecommended bool) Decision {
	var act string
	switch {
	case level >= core.RiskHigh:
		act = ActionStrongWarn
	case level == core.RiskMedium:
		act = ActionWarn
	case level == core.RiskLow:
		act = ActionInfo
	default:
		act = ActionNone
	}

	d := Decision{Level: level, Action: act, ActionKo: ActionNameKo[act]}
	if tpl, ok := p.loader.Threat().Templates[act]; ok {
		d.Message = tpl.UserMessage
		d.Steps = tpl.Steps
	}
	if secretRecommended {
		d.Steps = append(d.Steps, "민감한 정보는 시크릿 전송 기능으로 보내세요")
	}
	return d
}

func combinedLevel(score int) core.RiskLevel {
	switch {
	case score >= combinedCritical:
		return core.RiskCritical
	case score >= combinedHigh:
		return core.RiskHigh
	case score >= combinedMedium:
		return core.RiskMedium
	case score > 0:
		return core.RiskLow
	default:
		return core.RiskSafe
	}
}

func incomingAction(level core.RiskLevel, dbReported bool) string {
	switch level {
	case core.RiskCritical:
		if dbReported {
			return ActionBlockAndReport
		}
		return ActionBlockRecommend
	case core.RiskHigh:
		return ActionStrongWarn
	case core.RiskMedium:
		return ActionWarn
	case core.RiskLow:
		return ActionInfo
	default:
		return ActionNone
	}
}

func maxDBRisk(reports []intel.Report) (risk int, reported bool) {
	for _, rep := range reports {
		if !rep.Reported {
			continue
		}
		reported = true
		r := rep.RiskScore
		if r == 0 {
			r = defaultDBRisk
		}
		if r > risk {
			risk = r
		}
	}
	return risk, reported
}

func dbReason(reports []intel.Report) string {
	for _, rep := range reports {
		if rep.Reported {
			if rep.Details != "" {
				return "신고 이력 확인: " + rep.Details
			}
			return "신고 이력이 확인된 " + string(rep.Identifier.Type) + " 식별자입니다"
		}
	}
	return "신고 이력이 확인되었습니다"
}
