package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/agent"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	loader := catalog.NewLoader("../../data/sensitive_patterns.json", "../../data/threat_patterns.json")
	if err := loader.Load(); err != nil {
		t.Fatalf("카탈로그 로드 실패: %v", err)
	}
	threatCat := loader.Threat()

	localDB, err := intel.NewLocalReportDB("../../data/scam_db.json")
	if err != nil {
		t.Fatalf("로컬 신고 DB 로드 실패: %v", err)
	}
	manager := agent.NewManager(agent.Dependencies{
		Loader:    loader,
		Extractor: extract.New(threatCat.WhitelistDomains, threatCat.ShortURLDomains),
		Intel:     intel.NewAggregator(intel.AggregatorOptions{LocalDB: localDB}),
		Trust:     conversation.NewAnalyzer(conversation.NewMemoryStore(0)),
		Config: config.AnalyzerConfig{
			MaxTextBytes: 8192,
			FusionMode:   "staged",
		},
		Clock: func() time.Time {
			return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
		},
	})

	srv := httptest.NewServer(New(manager, loader).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("요청 실패: %v", err)
	}
	return resp
}

func decodeAnalysis(t *testing.T, resp *http.Response) core.AnalysisResponse {
	t.Helper()
	defer resp.Body.Close()
	var out core.AnalysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("응답 파싱 실패: %v", err)
	}
	return out
}

func TestAnalyzeOutgoingEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/analyze/outgoing", `{"text":"제 계좌는 110-555-667788 입니다"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("상태 코드 = %d, want 200", resp.StatusCode)
	}
	out := decodeAnalysis(t, resp)
	if out.RiskLevel != core.RiskMedium {
		t.Errorf("등급 = %v, want MEDIUM", out.RiskLevel)
	}
	if !out.IsSecretRecommended {
		t.Error("시크릿 전송이 권장되지 않음")
	}
	if out.ScamProbability != nil {
		t.Error("발신 응답에 사기 확률이 포함됨")
	}
}

func TestAnalyzeIncomingEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/analyze/incoming",
		`{"text":"엄마 나야 폰 고장나서 새번호야 급해서 돈 좀 보내줘","sender_id":"unknown-010"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("상태 코드 = %d, want 200", resp.StatusCode)
	}
	out := decodeAnalysis(t, resp)
	if out.RiskLevel < core.RiskHigh {
		t.Errorf("등급 = %v, want ≥HIGH", out.RiskLevel)
	}
	if out.Category != "A-1" {
		t.Errorf("분류 = %s, want A-1", out.Category)
	}
	if out.ScamProbability == nil {
		t.Error("수신 응답에 사기 확률이 없음")
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/analyze/outgoing", `{"text": 유효하지 않은 JSON`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("상태 코드 = %d, want 400", resp.StatusCode)
	}
	var env struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("오류 응답 파싱 실패: %v", err)
	}
	if env.Code != "invalid_request" {
		t.Errorf("오류 코드 = %s, want invalid_request", env.Code)
	}
}

func TestOversizedTextRejected(t *testing.T) {
	srv := newTestServer(t)
	huge := strings.Repeat("가", 4000)
	resp := postJSON(t, srv.URL+"/v1/analyze/incoming", `{"text":"`+huge+`"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("상태 코드 = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("요청 실패: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("상태 코드 = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("요청 실패: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("상태 코드 = %d, want 200", resp.StatusCode)
	}
}

func TestCatalogReloadEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/catalogs/reload", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("상태 코드 = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Status     string `json:"status"`
		PIIVersion string `json:"pii_version"`
		ThreatVer  string `json:"threat_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("응답 파싱 실패: %v", err)
	}
	if out.Status != "ok" || out.PIIVersion == "" {
		t.Errorf("재로드 응답 = %+v", out)
	}
}
