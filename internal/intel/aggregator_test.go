package intel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/core"
)

const (
	testScamDBPath   = "../../data/scam_db.json"
	testSnapshotPath = "../../data/phishing_snapshot.json"
)

// 스냅샷 파일의 갱신 시각과 무관하게 신선하도록 매우 긴 TTL
const foreverTTL = 100 * 365 * 24 * time.Hour

type fakePhoneProvider struct {
	rep Reputation
	err error
}

func (f *fakePhoneProvider) Lookup(ctx context.Context, canonical string) (Reputation, error) {
	return f.rep, f.err
}

type fakeURLProvider struct {
	verdict URLVerdict
	err     error
}

func (f *fakeURLProvider) Lookup(ctx context.Context, url string) (URLVerdict, error) {
	return f.verdict, f.err
}

func newTestLocalDB(t *testing.T) *LocalReportDB {
	t.Helper()
	db, err := NewLocalReportDB(testScamDBPath)
	if err != nil {
		t.Fatalf("로컬 신고 DB 로드 실패: %v", err)
	}
	return db
}

func newTestSnapshot(t *testing.T, ttl time.Duration) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(testSnapshotPath, ttl)
	if err != nil {
		t.Fatalf("스냅샷 로드 실패: %v", err)
	}
	return snap
}

func TestLocalDBLookup(t *testing.T) {
	db := newTestLocalDB(t)

	acct, ok := db.LookupAccount("110-555-667788")
	if !ok {
		t.Fatal("신고된 계좌가 조회되지 않음")
	}
	if acct.RiskScore != 88 || acct.Count != 4 {
		t.Errorf("계좌 평판 = %d/%d, want 88/4", acct.RiskScore, acct.Count)
	}

	// 구분자 없는 입력도 같은 키로 조회된다
	if _, ok := db.LookupAccount("110555667788"); !ok {
		t.Error("정규화 키 조회 실패")
	}

	phone, ok := db.LookupPhone("01099998888")
	if !ok {
		t.Fatal("신고된 전화번호가 조회되지 않음")
	}
	if phone.RiskScore != 97 || phone.Count != 23 {
		t.Errorf("전화 평판 = %d/%d, want 97/23", phone.RiskScore, phone.Count)
	}

	if _, ok := db.LookupPhone("010-1111-2222"); ok {
		t.Error("미신고 번호가 조회됨")
	}
}

func TestSnapshotContains(t *testing.T) {
	snap := newTestSnapshot(t, foreverTTL)

	hit, ok := snap.Contains("http://bit.ly/x9z")
	if !ok {
		t.Fatal("스냅샷 등재 호스트가 조회되지 않음")
	}
	if hit.Matched != "bit.ly" || hit.Kind != "short_url_abuse" {
		t.Errorf("조회 결과 = %+v", hit)
	}

	if _, ok := snap.Contains("https://example.com/page"); ok {
		t.Error("미등재 호스트가 조회됨")
	}
}

func TestSnapshotStaleTTLMisses(t *testing.T) {
	// 갱신 시각이 TTL을 넘긴 스냅샷은 조회되지 않아야 한다
	snap := newTestSnapshot(t, time.Minute)

	if _, ok := snap.Contains("bit.ly"); ok {
		t.Error("신선하지 않은 스냅샷이 조회됨")
	}
}

func TestCheckAllOrderAndSkip(t *testing.T) {
	agg := NewAggregator(AggregatorOptions{
		LocalDB:  newTestLocalDB(t),
		Snapshot: newTestSnapshot(t, foreverTTL),
	})

	idents := []core.Identifier{
		{Type: core.IdentPhone, Canonical: "01099998888"},
		{Type: core.IdentURL, Canonical: "http://naver.com", Safe: true},
		{Type: core.IdentAccount, Canonical: "110555667788"},
		{Type: core.IdentEmail, Canonical: "a@b.com"},
		{Type: core.IdentURL, Canonical: "http://bit.ly/x9z"},
	}
	reports := agg.CheckAll(context.Background(), idents)

	if len(reports) != len(idents) {
		t.Fatalf("결과 개수 = %d, want %d", len(reports), len(idents))
	}
	for i, rep := range reports {
		if rep.Identifier.Canonical != idents[i].Canonical {
			t.Fatalf("%d번째 결과 순서가 어긋남: %s", i, rep.Identifier.Canonical)
		}
	}
	if !reports[0].Reported || reports[0].Source != "local_db" {
		t.Errorf("전화 조회 결과 = %+v", reports[0])
	}
	if reports[1].Reported || reports[1].Source != "none" {
		t.Errorf("화이트리스트 URL이 조회됨: %+v", reports[1])
	}
	if !reports[2].Reported || reports[2].RiskScore != 88 {
		t.Errorf("계좌 조회 결과 = %+v", reports[2])
	}
	if reports[3].Reported {
		t.Errorf("이메일이 조회됨: %+v", reports[3])
	}
	if !reports[4].Reported || reports[4].Source != "snapshot" || reports[4].RiskScore != snapshotRiskScore {
		t.Errorf("스냅샷 URL 조회 결과 = %+v", reports[4])
	}
}

func TestProviderFailureBecomesNoReport(t *testing.T) {
	agg := NewAggregator(AggregatorOptions{
		LocalDB:   newTestLocalDB(t),
		Snapshot:  newTestSnapshot(t, foreverTTL),
		Phone:     &fakePhoneProvider{err: apperrors.NewProviderError("phone_reputation", apperrors.FailureUnavailable, errors.New("connection refused"))},
		URLEngine: &fakeURLProvider{err: context.DeadlineExceeded},
	})

	idents := []core.Identifier{
		{Type: core.IdentPhone, Canonical: "010-1111-2222"},
		{Type: core.IdentURL, Canonical: "http://unknown-host.example"},
	}
	reports := agg.CheckAll(context.Background(), idents)

	for i, rep := range reports {
		if rep.Reported {
			t.Errorf("%d번째: 프로바이더 실패가 신고로 보고됨: %+v", i, rep)
		}
		if rep.Source != "none" {
			t.Errorf("%d번째: 소스 = %s, want none", i, rep.Source)
		}
	}
}

func TestRemoteReportCountCoercedToOne(t *testing.T) {
	agg := NewAggregator(AggregatorOptions{
		LocalDB: newTestLocalDB(t),
		Phone:   &fakePhoneProvider{rep: Reputation{IsReported: true, Count: 0, RiskScore: 70}},
	})

	reports := agg.CheckAll(context.Background(), []core.Identifier{
		{Type: core.IdentPhone, Canonical: "010-1111-2222"},
	})
	if !reports[0].Reported {
		t.Fatal("원격 신고가 반영되지 않음")
	}
	if reports[0].ReportCount != 1 {
		t.Errorf("신고 횟수 = %d, want 1 (최소 1 보정)", reports[0].ReportCount)
	}
}

func TestRemotePreferredOverLocal(t *testing.T) {
	agg := NewAggregator(AggregatorOptions{
		LocalDB: newTestLocalDB(t),
		Phone:   &fakePhoneProvider{rep: Reputation{IsReported: true, Count: 50, RiskScore: 90}},
	})

	reports := agg.CheckAll(context.Background(), []core.Identifier{
		{Type: core.IdentPhone, Canonical: "01099998888"},
	})
	if reports[0].Source != "phone_reputation" {
		t.Errorf("소스 = %s, want phone_reputation (원격 우선)", reports[0].Source)
	}
	if reports[0].ReportCount != 50 {
		t.Errorf("신고 횟수 = %d, want 50", reports[0].ReportCount)
	}
}

func TestURLVerdictRisk(t *testing.T) {
	cases := []struct {
		verdict URLVerdict
		want    int
	}{
		{URLVerdict{Malicious: 10, Suspicious: 0, Total: 10}, 100},
		{URLVerdict{Malicious: 0, Suspicious: 10, Total: 10}, 50},
		{URLVerdict{Malicious: 1, Suspicious: 0, Total: 70}, 60}, // 악성 1건 이상은 하한 60
		{URLVerdict{Malicious: 0, Suspicious: 0, Total: 0}, 0},
	}
	for _, tc := range cases {
		if got := verdictRisk(tc.verdict); got != tc.want {
			t.Errorf("verdictRisk(%+v) = %d, want %d", tc.verdict, got, tc.want)
		}
	}
}

func TestReportPrior(t *testing.T) {
	cases := []struct {
		report Report
		want   float64
	}{
		{Report{Reported: true, ReportCount: 100}, 0.5},
		{Report{Reported: true, ReportCount: 1}, 1.0 / 101.0},
		{Report{Reported: false, ReportCount: 10}, 0},
		{Report{Reported: true, ReportCount: 0}, 0},
	}
	for _, tc := range cases {
		if got := tc.report.Prior(); got != tc.want {
			t.Errorf("Prior(%+v) = %f, want %f", tc.report, got, tc.want)
		}
	}
}

func TestMemoryCacheReuse(t *testing.T) {
	cache := NewMemoryReportCache(16, time.Minute)
	defer cache.Close()

	calls := 0
	counting := &countingPhoneProvider{rep: Reputation{IsReported: true, Count: 3, RiskScore: 80}, calls: &calls}
	agg := NewAggregator(AggregatorOptions{
		LocalDB: newTestLocalDB(t),
		Phone:   counting,
		Cache:   cache,
	})

	ident := []core.Identifier{{Type: core.IdentPhone, Canonical: "010-1111-2222"}}
	first := agg.CheckAll(context.Background(), ident)
	second := agg.CheckAll(context.Background(), ident)

	if calls != 1 {
		t.Errorf("원격 호출 횟수 = %d, want 1 (두 번째는 캐시)", calls)
	}
	if first[0].ReportCount != second[0].ReportCount || first[0].RiskScore != second[0].RiskScore {
		t.Errorf("캐시 결과 불일치: %+v != %+v", first[0], second[0])
	}
}

type countingPhoneProvider struct {
	rep   Reputation
	calls *int
}

func (c *countingPhoneProvider) Lookup(ctx context.Context, canonical string) (Reputation, error) {
	*c.calls++
	return c.rep, nil
}
