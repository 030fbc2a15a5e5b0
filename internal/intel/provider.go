// Package intel 외부 평판 프로바이더 위의 단일 파사드.
// 모든 프로바이더 실패는 "신고 없음"으로 흡수되며 분석 전체를 실패시키지 않는다.
package intel

import (
	"context"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/core"
)

// Reputation 전화/계좌 평판 조회 결과
type Reputation struct {
	IsReported bool   `json:"is_reported"`
	Count      int    `json:"count"`
	When       string `json:"when"`
	Details    string `json:"details"`
	ThreatType string `json:"threat_type"`
	RiskScore  int    `json:"risk_score"` // 0-100, 0이면 소스 기본값 사용
}

// URLVerdict 다중 엔진 URL 검사 결과
type URLVerdict struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
	Total      int `json:"total"`
}

// PhoneReputationProvider 전화번호 평판 조회
type PhoneReputationProvider interface {
	Lookup(ctx context.Context, canonicalPhone string) (Reputation, error)
}

// AccountReputationProvider 계좌번호 평판 조회
type AccountReputationProvider interface {
	Lookup(ctx context.Context, canonicalAccount, bankCode string) (Reputation, error)
}

// URLReputationProvider 원격 다중 엔진 URL 검사
type URLReputationProvider interface {
	Lookup(ctx context.Context, url string) (URLVerdict, error)
}

// Report 집계기가 생산하는 위협 인텔 레코드. 소비자는 필드를 지어내면 안 된다.
type Report struct {
	Identifier  core.Identifier `json:"identifier"`
	Reported    bool            `json:"reported"`
	ReportCount int             `json:"report_count"` // 신고가 있으면 max(1, v)로 보정됨
	RiskScore   int             `json:"risk_score"`   // 0-100
	ThreatType  string          `json:"threat_type,omitempty"`
	Details     string          `json:"details,omitempty"`
	ReportedAt  string          `json:"reported_at,omitempty"`
	Source      string          `json:"source"` // local_db / snapshot / phone_reputation / account_reputation / url_engine / none
	FetchedAt   time.Time       `json:"fetched_at"`
}

// Prior 신고 횟수 기반 사전 확률: count/(count+100). 단조 증가, [0,1) 유계.
func (r Report) Prior() float64 {
	if !r.Reported || r.ReportCount <= 0 {
		return 0
	}
	return float64(r.ReportCount) / float64(r.ReportCount+100)
}

// noReport 신고 없음 레코드
func noReport(id core.Identifier) Report {
	return Report{Identifier: id, Source: "none", FetchedAt: time.Now()}
}
