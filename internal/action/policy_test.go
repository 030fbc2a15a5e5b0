package action

import (
	"testing"

	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	loader := catalog.NewLoader("../../data/sensitive_patterns.json", "../../data/threat_patterns.json")
	if err := loader.Load(); err != nil {
		t.Fatalf("카탈로그 로드 실패: %v", err)
	}
	return NewPolicy(loader)
}

func reportedURL(risk int) intel.Report {
	return intel.Report{
		Identifier:  core.Identifier{Type: core.IdentURL, Canonical: "http://bit.ly/x"},
		Reported:    true,
		ReportCount: 1,
		RiskScore:   risk,
		Source:      "snapshot",
	}
}

func TestCombinedScoreThresholds(t *testing.T) {
	p := newTestPolicy(t)
	cases := []struct {
		name      string
		in        IncomingInput
		wantScore int
		wantLevel core.RiskLevel
	}{
		{
			name:      "텍스트 MEDIUM + 스냅샷 95 + 미상 발신자 20 - 업무시간 5 = 150",
			in:        IncomingInput{TextLevel: core.RiskMedium, Reports: []intel.Report{reportedURL(95)}, Profile: conversation.Profile{RiskAdjust: 20, TimeAdjust: -5}},
			wantScore: 150,
			wantLevel: core.RiskCritical,
		},
		{
			name:      "텍스트 HIGH 단독 = 70",
			in:        IncomingInput{TextLevel: core.RiskHigh},
			wantScore: 70,
			wantLevel: core.RiskHigh,
		},
		{
			name:      "텍스트 MEDIUM - 신뢰 발신자 20 - 업무시간 5 = 15",
			in:        IncomingInput{TextLevel: core.RiskMedium, Profile: conversation.Profile{RiskAdjust: -20, TimeAdjust: -5}},
			wantScore: 15,
			wantLevel: core.RiskLow,
		},
		{
			name:      "보정으로 음수가 되면 0",
			in:        IncomingInput{TextLevel: core.RiskSafe, Profile: conversation.Profile{RiskAdjust: -20, TimeAdjust: -5}},
			wantScore: 0,
			wantLevel: core.RiskSafe,
		},
	}
	for _, tc := range cases {
		d := p.DecideIncoming(tc.in)
		if d.CombinedScore != tc.wantScore {
			t.Errorf("%s: 점수 = %d, want %d", tc.name, d.CombinedScore, tc.wantScore)
		}
		if d.Level != tc.wantLevel {
			t.Errorf("%s: 등급 = %v, want %v", tc.name, d.Level, tc.wantLevel)
		}
	}
}

func TestBlockAndReportRequiresDBReport(t *testing.T) {
	p := newTestPolicy(t)

	// CRITICAL + 신고 이력 → 차단 및 신고
	d := p.DecideIncoming(IncomingInput{TextLevel: core.RiskCritical, Reports: []intel.Report{reportedURL(95)}})
	if d.Action != ActionBlockAndReport {
		t.Errorf("조치 = %s, want block_and_report", d.Action)
	}

	// CRITICAL인데 신고 이력 없음 → 차단 권장까지만
	d = p.DecideIncoming(IncomingInput{TextLevel: core.RiskCritical})
	if d.Action != ActionBlockRecommend {
		t.Errorf("조치 = %s, want block_recommend", d.Action)
	}
}

func TestScenarioOverrideUpgradeOnly(t *testing.T) {
	p := newTestPolicy(t)

	// 낮은 등급 + 가족 사칭 시나리오 → 조치가 block_recommend로 상향되고
	// 전용 메시지가 붙는다
	d := p.DecideIncoming(IncomingInput{TextLevel: core.RiskMedium, ScenarioID: "family_impersonate"})
	if d.Action != ActionBlockRecommend {
		t.Errorf("조치 = %s, want block_recommend (시나리오 상향)", d.Action)
	}
	if d.Message != "가족을 사칭한 사기일 수 있습니다. 기존에 저장된 번호로 직접 전화해서 본인인지 확인하세요." {
		t.Errorf("전용 메시지 누락: %q", d.Message)
	}

	// 이미 더 강한 조치면 시나리오가 하향하지 못한다
	d = p.DecideIncoming(IncomingInput{
		TextLevel:  core.RiskCritical,
		Reports:    []intel.Report{reportedURL(95)},
		ScenarioID: "investment_scam", // override는 strong_warn
	})
	if d.Action != ActionBlockAndReport {
		t.Errorf("조치 = %s, want block_and_report (하향 금지)", d.Action)
	}
}

func TestContactsAttachedFromStrongWarn(t *testing.T) {
	p := newTestPolicy(t)

	d := p.DecideIncoming(IncomingInput{TextLevel: core.RiskHigh})
	if d.Action != ActionStrongWarn {
		t.Fatalf("조치 = %s, want strong_warn", d.Action)
	}
	if len(d.Contacts) == 0 {
		t.Fatal("강력 경고 이상인데 비상 연락처가 없음")
	}
	if d.Contacts[0].NameKo != "경찰청" || d.Contacts[0].Number != "112" {
		t.Errorf("연락처 = %+v", d.Contacts[0])
	}

	d = p.DecideIncoming(IncomingInput{TextLevel: core.RiskMedium})
	if len(d.Contacts) != 0 {
		t.Errorf("주의 단계에 연락처가 붙음: %+v", d.Contacts)
	}
}

func TestFusedLevelRaisesDecision(t *testing.T) {
	p := newTestPolicy(t)
	d := p.DecideIncoming(IncomingInput{TextLevel: core.RiskLow, FusedLevel: core.RiskHigh})
	if d.Level != core.RiskHigh {
		t.Errorf("등급 = %v, want HIGH (융합 등급 우선)", d.Level)
	}
}

func TestDBReasonIncluded(t *testing.T) {
	p := newTestPolicy(t)
	rep := reportedURL(95)
	rep.Details = "피싱 URL 스냅샷 등재: bit.ly"
	d := p.DecideIncoming(IncomingInput{TextLevel: core.RiskMedium, Reports: []intel.Report{rep}})

	var found bool
	for _, r := range d.Reasons {
		if r.Source == "scam_db" && r.ScoreImpact == 95 {
			found = true
		}
	}
	if !found {
		t.Errorf("신고 DB 근거 누락: %+v", d.Reasons)
	}
}

func TestDecideOutgoing(t *testing.T) {
	p := newTestPolicy(t)

	d := p.DecideOutgoing(core.RiskCritical, true)
	if d.Action != ActionStrongWarn {
		t.Errorf("발신 CRITICAL 조치 = %s, want strong_warn (발신 최고 조치)", d.Action)
	}
	last := d.Steps[len(d.Steps)-1]
	if last != "민감한 정보는 시크릿 전송 기능으로 보내세요" {
		t.Errorf("시크릿 전송 안내 누락: %v", d.Steps)
	}

	d = p.DecideOutgoing(core.RiskMedium, false)
	if d.Action != ActionWarn {
		t.Errorf("발신 MEDIUM 조치 = %s, want warn", d.Action)
	}

	d = p.DecideOutgoing(core.RiskLow, false)
	if d.Action != ActionInfo {
		t.Errorf("발신 LOW 조치 = %s, want info", d.Action)
	}
}
