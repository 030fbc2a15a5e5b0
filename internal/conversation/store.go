// Package conversation 대화 이력 기반 발신자 신뢰 분석.
package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ContactStats 두 사용자 간 대화 이력 요약
type ContactStats struct {
	MessageCount int
	FirstContact time.Time
	LastContact  time.Time
}

// Known 이력이 한 건이라도 있으면 true
func (s ContactStats) Known() bool {
	return s.MessageCount > 0
}

// RelationshipDays 첫 대화 이후 경과 일수
func (s ContactStats) RelationshipDays(now time.Time) float64 {
	if s.FirstContact.IsZero() || now.Before(s.FirstContact) {
		return 0
	}
	return now.Sub(s.FirstContact).Hours() / 24
}

// Store 대화 이력 저장소
type Store interface {
	Stats(ctx context.Context, senderID, receiverID string) (ContactStats, error)
	Append(ctx context.Context, senderID, receiverID string, at time.Time) error
	Close() error
}

// SQLiteStore SQLite 기반 대화 이력 저장소
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore SQLite 저장소 오픈 및 스키마 생성
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open conversation db %s: %w", path, err)
	}
	// 단일 프로세스 쓰기 전제, WAL로 독자 차단 방지
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	schema := `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		sent_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (sender_id, receiver_id);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Stats 대화 이력 요약 조회
func (s *SQLiteStore) Stats(ctx context.Context, senderID, receiverID string) (ContactStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MIN(sent_at), ''), COALESCE(MAX(sent_at), '')
		 FROM messages WHERE sender_id = ? AND receiver_id = ?`,
		senderID, receiverID)

	var count int
	var first, last string
	if err := row.Scan(&count, &first, &last); err != nil {
		return ContactStats{}, fmt.Errorf("query stats: %w", err)
	}
	stats := ContactStats{MessageCount: count}
	if first != "" {
		if t, err := parseSQLiteTime(first); err == nil {
			stats.FirstContact = t
		}
	}
	if last != "" {
		if t, err := parseSQLiteTime(last); err == nil {
			stats.LastContact = t
		}
	}
	return stats, nil
}

// Append 메시지 수신 기록 추가
func (s *SQLiteStore) Append(ctx context.Context, senderID, receiverID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, sent_at) VALUES (?, ?, ?)`,
		senderID, receiverID, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Close 저장소 종료
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseSQLiteTime(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %s", v)
}

// MemoryStore 테스트와 단독 실행용 메모리 저장소. 페어당 기록 수를
// 제한해 장기 실행 시 무한 성장을 막는다.
type MemoryStore struct {
	mu         sync.RWMutex
	byPair     map[string][]time.Time
	firstSeen  map[string]time.Time
	totals     map[string]int
	maxPerPair int
}

// NewMemoryStore 메모리 저장소 생성
func NewMemoryStore(maxPerPair int) *MemoryStore {
	if maxPerPair <= 0 {
		maxPerPair = 1000
	}
	return &MemoryStore{
		byPair:     make(map[string][]time.Time),
		firstSeen:  make(map[string]time.Time),
		totals:     make(map[string]int),
		maxPerPair: maxPerPair,
	}
}

func pairKey(senderID, receiverID string) string {
	return senderID + "\x00" + receiverID
}

// Stats 대화 이력 요약 조회
func (s *MemoryStore) Stats(_ context.Context, senderID, receiverID string) (ContactStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := pairKey(senderID, receiverID)
	times := s.byPair[key]
	if len(times) == 0 {
		return ContactStats{}, nil
	}
	return ContactStats{
		MessageCount: s.totals[key],
		FirstContact: s.firstSeen[key],
		LastContact:  times[len(times)-1],
	}, nil
}

// Append 메시지 수신 기록 추가
func (s *MemoryStore) Append(_ context.Context, senderID, receiverID string, at time.Time) error {
	key := pairKey(senderID, receiverID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.firstSeen[key]; !ok {
		s.firstSeen[key] = at
	}
	s.totals[key]++
	times := append(s.byPair[key], at)
	if len(times) > s.maxPerPair {
		times = times[len(times)-s.maxPerPair:]
	}
	s.byPair[key] = times
	return nil
}

// Close 메모리 저장소는 종료 작업이 없다
func (s *MemoryStore) Close() error {
	return nil
}
