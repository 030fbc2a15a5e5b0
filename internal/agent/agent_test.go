package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
)

// 오후 2시 고정 시계 (업무 시간대)
var testClock = func() time.Time {
	return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
}

// 스냅샷 파일 갱신 시각과 무관하게 신선하도록 매우 긴 TTL
const foreverTTL = 100 * 365 * 24 * time.Hour

type managerOptions struct {
	store conversation.Store
}

func newTestManager(t *testing.T, opts managerOptions) *Manager {
	t.Helper()
	loader := catalog.NewLoader("../../data/sensitive_patterns.json", "../../data/threat_patterns.json")
	if err := loader.Load(); err != nil {
		t.Fatalf("카탈로그 로드 실패: %v", err)
	}
	threatCat := loader.Threat()
	extractor := extract.New(threatCat.WhitelistDomains, threatCat.ShortURLDomains)

	localDB, err := intel.NewLocalReportDB("../../data/scam_db.json")
	if err != nil {
		t.Fatalf("로컬 신고 DB 로드 실패: %v", err)
	}
	snapshot, err := intel.NewSnapshot("../../data/phishing_snapshot.json", foreverTTL)
	if err != nil {
		t.Fatalf("스냅샷 로드 실패: %v", err)
	}
	aggregator := intel.NewAggregator(intel.AggregatorOptions{
		LocalDB:  localDB,
		Snapshot: snapshot,
	})

	store := opts.store
	if store == nil {
		store = conversation.NewMemoryStore(0)
	}

	return NewManager(Dependencies{
		Loader:    loader,
		Extractor: extractor,
		Intel:     aggregator,
		Trust:     conversation.NewAnalyzer(store),
		Config: config.AnalyzerConfig{
			MaxTextBytes: 8192,
			FusionMode:   "staged",
		},
		Clock: testClock,
	})
}

func TestOutgoingAccountNumber(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Outgoing.Analyze(context.Background(), core.AnalyzeOutgoingRequest{
		Text: "제 계좌는 110-555-667788 입니다",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}

	if resp.RiskLevel != core.RiskMedium {
		t.Errorf("등급 = %v, want MEDIUM", resp.RiskLevel)
	}
	if !resp.IsSecretRecommended {
		t.Error("시크릿 전송이 권장되지 않음")
	}
	if resp.MaskedText == "" || strings.Contains(resp.MaskedText, "667788") {
		t.Errorf("마스킹 미적용: %q", resp.MaskedText)
	}
	if resp.ScamProbability != nil {
		t.Error("발신 응답에 사기 확률이 포함됨")
	}
	if len(resp.Reasons) == 0 {
		t.Error("근거가 없음")
	}
}

func TestOutgoingResidentIDCritical(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Outgoing.Analyze(context.Background(), core.AnalyzeOutgoingRequest{
		Text: "주민등록번호는 900115-1234567 입니다",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	if resp.RiskLevel != core.RiskCritical {
		t.Errorf("등급 = %v, want CRITICAL", resp.RiskLevel)
	}
	if !resp.IsSecretRecommended {
		t.Error("시크릿 전송이 권장되지 않음")
	}
}

func TestOutgoingObfuscatedResidentID(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Outgoing.Analyze(context.Background(), core.AnalyzeOutgoingRequest{
		Text: "주민번호 구공공일일오 다시 일이삼사오육칠",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	if resp.RiskLevel != core.RiskCritical {
		t.Errorf("난독화 주민번호 등급 = %v, want CRITICAL", resp.RiskLevel)
	}
}

func TestOutgoingObfuscationAloneTriggersAnalysis(t *testing.T) {
	// 원문에는 숫자 런도 키워드도 없고 한글 숫자뿐이다.
	// 게이트가 정규화 전 텍스트를 보면 분석 없이 통과시켜 버린다.
	m := newTestManager(t, managerOptions{})
	resp, err := m.Outgoing.Analyze(context.Background(), core.AnalyzeOutgoingRequest{
		Text: "구공공일일오 다시 일이삼사오육칠",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	if resp.RiskLevel != core.RiskCritical {
		t.Fatalf("등급 = %v, want CRITICAL", resp.RiskLevel)
	}
	if !resp.IsSecretRecommended {
		t.Error("시크릿 전송이 권장되지 않음")
	}
	if len(resp.Reasons) == 0 {
		t.Error("근거가 없음")
	}
}

func TestOutgoingEmptyText(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Outgoing.Analyze(context.Background(), core.AnalyzeOutgoingRequest{Text: ""})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	if resp.RiskLevel != core.RiskLow {
		t.Errorf("빈 텍스트 등급 = %v, want LOW", resp.RiskLevel)
	}
	if len(resp.Reasons) != 0 {
		t.Errorf("빈 텍스트에 근거가 있음: %+v", resp.Reasons)
	}
}

func TestOversizedTextRejected(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	huge := strings.Repeat("가", 4000) // 12000바이트

	if _, err := m.Outgoing.Analyze(context.Background(), core.AnalyzeOutgoingRequest{Text: huge}); !apperrors.IsInvalidRequest(err) {
		t.Errorf("발신 초과 텍스트 오류 = %v, want InvalidRequest", err)
	}
	if _, err := m.Incoming.Analyze(context.Background(), core.AnalyzeIncomingRequest{Text: huge}); !apperrors.IsInvalidRequest(err) {
		t.Errorf("수신 초과 텍스트 오류 = %v, want InvalidRequest", err)
	}
}

func TestIncomingFamilyImpersonation(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Incoming.Analyze(context.Background(), core.AnalyzeIncomingRequest{
		Text:     "엄마 나야 폰 고장나서 새번호야 급해서 돈 좀 보내줘",
		SenderID: "unknown-010",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}

	if resp.RiskLevel < core.RiskHigh {
		t.Errorf("등급 = %v, want ≥HIGH", resp.RiskLevel)
	}
	if resp.Category != "A-1" {
		t.Errorf("분류 = %s, want A-1", resp.Category)
	}
	if !strings.Contains(resp.Message, "직접 전화") {
		t.Errorf("본인 확인 안내가 없음: %q", resp.Message)
	}
	if resp.ScamProbability == nil || *resp.ScamProbability < 70 {
		t.Errorf("사기 확률 = %v, want ≥70", resp.ScamProbability)
	}
	if resp.RecommendedAction != "block_recommend" {
		t.Errorf("조치 = %s, want block_recommend", resp.RecommendedAction)
	}
}

func TestIncomingSnapshotURLBlocked(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Incoming.Analyze(context.Background(), core.AnalyzeIncomingRequest{
		Text:     "택배 주소 불일치 확인 http://bit.ly/abc123",
		SenderID: "unknown-070",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}

	if resp.RiskLevel != core.RiskCritical {
		t.Errorf("등급 = %v, want CRITICAL", resp.RiskLevel)
	}
	if resp.RecommendedAction != "block_and_report" {
		t.Errorf("조치 = %s, want block_and_report", resp.RecommendedAction)
	}
	if len(resp.Contacts) == 0 {
		t.Error("비상 연락처가 없음")
	}
	var dbReason bool
	for _, r := range resp.Reasons {
		if r.Source == "scam_db" {
			dbReason = true
		}
	}
	if !dbReason {
		t.Errorf("신고 DB 근거 누락: %+v", resp.Reasons)
	}
}

func TestIncomingTrustedSenderDemoted(t *testing.T) {
	store := conversation.NewMemoryStore(0)
	first := testClock().Add(-30 * 24 * time.Hour)
	for i := 0; i < 20; i++ {
		at := first.Add(time.Duration(i) * 24 * time.Hour)
		if err := store.Append(context.Background(), "friend-1", "me", at); err != nil {
			t.Fatalf("이력 기록 실패: %v", err)
		}
	}

	m := newTestManager(t, managerOptions{store: store})
	resp, err := m.Incoming.Analyze(context.Background(), core.AnalyzeIncomingRequest{
		Text:       "대출 한도 상담 신청하려는데 어때",
		SenderID:   "friend-1",
		ReceiverID: "me",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}

	if resp.RiskLevel > core.RiskLow {
		t.Errorf("등급 = %v, want ≤LOW (신뢰 발신자)", resp.RiskLevel)
	}
	if resp.ScamProbability == nil || *resp.ScamProbability > 20 {
		t.Errorf("사기 확률 = %v, want ≤20", resp.ScamProbability)
	}
	var demoted bool
	for _, r := range resp.Reasons {
		if r.Source == "fusion" && strings.Contains(r.Description, "하향") {
			demoted = true
			if r.ScoreImpact >= 0 {
				t.Errorf("하향 근거 기여도 = %.2f, want 음수", r.ScoreImpact)
			}
		}
		if r.ScoreImpact == 0 {
			t.Errorf("기여도가 0인 근거: %+v", r)
		}
		if r.Weight == 0 {
			t.Errorf("가중치가 0인 근거: %+v", r)
		}
	}
	if !demoted {
		t.Errorf("신뢰 발신자 하향 근거 누락: %+v", resp.Reasons)
	}
}

func TestIncomingEmptyText(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Incoming.Analyze(context.Background(), core.AnalyzeIncomingRequest{Text: ""})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	if resp.RiskLevel != core.RiskLow {
		t.Errorf("등급 = %v, want LOW", resp.RiskLevel)
	}
	if resp.RecommendedAction != "info" {
		t.Errorf("조치 = %s, want info", resp.RecommendedAction)
	}
	if resp.ScamProbability == nil || *resp.ScamProbability != 0 {
		t.Errorf("사기 확률 = %v, want 0", resp.ScamProbability)
	}
}

func TestIncomingNormalMessage(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	resp, err := m.Incoming.Analyze(context.Background(), core.AnalyzeIncomingRequest{
		Text: "오늘 저녁에 시간 되면 같이 밥 먹을래?",
	})
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	if resp.Category != "NORMAL" {
		t.Errorf("분류 = %s, want NORMAL", resp.Category)
	}
	if resp.RiskLevel > core.RiskLow {
		t.Errorf("등급 = %v, want ≤LOW", resp.RiskLevel)
	}
}

func TestIncomingDeterministic(t *testing.T) {
	m := newTestManager(t, managerOptions{})
	req := core.AnalyzeIncomingRequest{
		Text: "엄마 나야 폰 고장나서 새번호야 급해서 돈 좀 보내줘",
	}

	base, err := m.Incoming.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("분석 실패: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := m.Incoming.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("%d번째 분석 실패: %v", i, err)
		}
		if got.RiskLevel != base.RiskLevel ||
			got.Category != base.Category ||
			got.RecommendedAction != base.RecommendedAction ||
			*got.ScamProbability != *base.ScamProbability ||
			len(got.Reasons) != len(base.Reasons) {
			t.Fatalf("%d번째 결과가 다름: %+v != %+v", i, got, base)
		}
	}
}
