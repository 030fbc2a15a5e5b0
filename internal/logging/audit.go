// Package logging 분석 감사 로그 (NDJSON, 일 단위 파일).
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/core"
)

// AuditLogger 분석 결과를 일 단위 NDJSON 파일에 기록한다.
// 원문 텍스트는 절대 기록하지 않고 마스킹된 텍스트만 남긴다.
type AuditLogger struct {
	dir string

	mu      sync.Mutex
	day     string
	file    *os.File
	encoder *json.Encoder
}

// NewAuditLogger 감사 로거 생성
func NewAuditLogger(dir string) (*AuditLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	return &AuditLogger{dir: dir}, nil
}

// Write 감사 레코드 한 줄 기록. 기록 실패는 분석을 실패시키지 않는다.
func (l *AuditLogger) Write(entry core.AnalysisLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.rotateLocked(entry.Timestamp); err != nil {
		log.Printf("[WARN] 감사 로그 파일 열기 실패: %v", err)
		return
	}
	if err := l.encoder.Encode(entry); err != nil {
		log.Printf("[WARN] 감사 로그 기록 실패: %v", err)
	}
}

// Close 로그 파일 종료
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.encoder = nil
	return err
}

func (l *AuditLogger) rotateLocked(ts time.Time) error {
	day := ts.Format("2006-01-02")
	if l.file != nil && l.day == day {
		return nil
	}
	if l.file != nil {
		l.file.Close()
	}
	path := filepath.Join(l.dir, fmt.Sprintf("analysis_%s.log", day))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	l.day = day
	return nil
}
