package intel

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync/atomic"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// localDBFile 로컬 사기 신고 DB 파일 포맷
type localDBFile struct {
	Version           string                      `json:"version"`
	StatusDefinitions map[string]statusDefinition `json:"status_definitions"`
	ReportedAccounts  struct {
		Data []localAccountRecord `json:"data"`
	} `json:"reported_accounts"`
	ReportedPhones struct {
		Data []localPhoneRecord `json:"data"`
	} `json:"reported_phones"`
}

type statusDefinition struct {
	NameKo string `json:"name_ko"`
	Action string `json:"action"`
}

type localAccountRecord struct {
	AccountNumber string `json:"account_number"`
	Bank          string `json:"bank"`
	ReportCount   int    `json:"report_count"`
	ReportType    string `json:"report_type"`
	Status        string `json:"status"`
	RiskScore     int    `json:"risk_score"`
	LastReported  string `json:"last_reported"`
}

type localPhoneRecord struct {
	PhoneNumber  string `json:"phone_number"`
	ReportCount  int    `json:"report_count"`
	ReportType   string `json:"report_type"`
	Status       string `json:"status"`
	RiskScore    int    `json:"risk_score"`
	LastReported string `json:"last_reported"`
}

type localDBIndex struct {
	accounts map[string]localAccountRecord
	phones   map[string]localPhoneRecord
	statuses map[string]statusDefinition
}

// LocalReportDB 로컬 사기 신고 DB. 원격 프로바이더와 병행 조회되며
// 원격 결과가 있으면 원격이 우선한다.
type LocalReportDB struct {
	path string
	view atomic.Pointer[localDBIndex]
}

// NewLocalReportDB 로컬 신고 DB 로드
func NewLocalReportDB(path string) (*LocalReportDB, error) {
	db := &LocalReportDB{path: path}
	if err := db.Reload(); err != nil {
		return nil, err
	}
	return db, nil
}

// Reload 파일을 다시 읽어 인덱스를 원자적으로 교체한다
func (db *LocalReportDB) Reload() error {
	raw, err := os.ReadFile(db.path)
	if err != nil {
		return fmt.Errorf("read scam db %s: %w", db.path, err)
	}
	var file localDBFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse scam db %s: %w", db.path, err)
	}

	idx := &localDBIndex{
		accounts: make(map[string]localAccountRecord, len(file.ReportedAccounts.Data)),
		phones:   make(map[string]localPhoneRecord, len(file.ReportedPhones.Data)),
		statuses: file.StatusDefinitions,
	}
	for _, rec := range file.ReportedAccounts.Data {
		idx.accounts[digitsOf(rec.AccountNumber)] = rec
	}
	for _, rec := range file.ReportedPhones.Data {
		idx.phones[digitsOf(rec.PhoneNumber)] = rec
	}
	db.view.Store(idx)
	return nil
}

// LookupPhone 전화번호 신고 이력 조회 (정규화 키)
func (db *LocalReportDB) LookupPhone(canonical string) (Reputation, bool) {
	idx := db.view.Load()
	if idx == nil {
		return Reputation{}, false
	}
	rec, ok := idx.phones[digitsOf(canonical)]
	if !ok {
		return Reputation{}, false
	}
	return Reputation{
		IsReported: true,
		Count:      rec.ReportCount,
		When:       rec.LastReported,
		Details:    idx.statusName(rec.Status),
		ThreatType: rec.ReportType,
		RiskScore:  rec.RiskScore,
	}, true
}

// LookupAccount 계좌번호 신고 이력 조회 (정규화 키)
func (db *LocalReportDB) LookupAccount(canonical string) (Reputation, bool) {
	idx := db.view.Load()
	if idx == nil {
		return Reputation{}, false
	}
	rec, ok := idx.accounts[digitsOf(canonical)]
	if !ok {
		return Reputation{}, false
	}
	return Reputation{
		IsReported: true,
		Count:      rec.ReportCount,
		When:       rec.LastReported,
		Details:    fmt.Sprintf("%s / %s", rec.Bank, idx.statusName(rec.Status)),
		ThreatType: rec.ReportType,
		RiskScore:  rec.RiskScore,
	}, true
}

func (idx *localDBIndex) statusName(status string) string {
	if def, ok := idx.statuses[status]; ok {
		return def.NameKo
	}
	return status
}

func digitsOf(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}
