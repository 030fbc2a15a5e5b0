package intel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/metrics"
)

// SnapshotRecord 피싱 URL 스냅샷 레코드 1건
type SnapshotRecord struct {
	Host       string `json:"host"`
	ReportedAt string `json:"reported_at"`
	Kind       string `json:"kind"`
}

// snapshotBlob 외부 다운로더가 갱신하는 직렬화 포맷
type snapshotBlob struct {
	UpdatedAt   time.Time        `json:"updated_at"`
	TotalCount  int              `json:"total_count"`
	Records     []SnapshotRecord `json:"records"`
	DomainIndex map[string]int   `json:"domain_index"`
}

// SnapshotHit 스냅샷 조회 결과
type SnapshotHit struct {
	Matched    string
	ReportedAt string
	Kind       string
}

// Snapshot 피싱 URL 로컬 스냅샷. 단일 작성자 갱신에 다수 독자가 항상
// 완전한 이전 뷰 또는 완전한 새 뷰만 본다 (원자적 포인터 교체).
type Snapshot struct {
	path      string
	ttl       time.Duration
	view      atomic.Pointer[snapshotBlob]
	refreshMu sync.Mutex
}

// NewSnapshot 스냅샷 생성 후 즉시 로드. 파일이 없으면 빈 뷰로 시작한다.
func NewSnapshot(path string, ttl time.Duration) (*Snapshot, error) {
	s := &Snapshot{path: path, ttl: ttl}
	if err := s.Refresh(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		s.view.Store(&snapshotBlob{DomainIndex: map[string]int{}})
	}
	return s, nil
}

// Refresh 스냅샷 파일을 다시 읽어 원자적으로 교체한다. 단일 작성자 경로.
func (s *Snapshot) Refresh() error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	var blob snapshotBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}
	if blob.DomainIndex == nil {
		// 인덱스가 없으면 레코드에서 재구성 (O(1) 조회 유지)
		blob.DomainIndex = make(map[string]int, len(blob.Records))
		for i, rec := range blob.Records {
			blob.DomainIndex[extract.HostOf(rec.Host)] = i
		}
	}
	s.view.Store(&blob)
	metrics.SetSnapshotInfo(time.Since(blob.UpdatedAt), len(blob.Records))
	return nil
}

// Contains 호스트(또는 URL)가 스냅샷에 있는지 O(1) 조회.
// 스냅샷이 TTL을 넘기면 신선하지 않은 것으로 보고 조회하지 않는다.
func (s *Snapshot) Contains(hostOrURL string) (SnapshotHit, bool) {
	blob := s.view.Load()
	if blob == nil || len(blob.Records) == 0 {
		return SnapshotHit{}, false
	}
	if s.ttl > 0 && time.Since(blob.UpdatedAt) > s.ttl {
		return SnapshotHit{}, false
	}
	host := extract.HostOf(hostOrURL)
	idx, ok := blob.DomainIndex[host]
	if !ok || idx < 0 || idx >= len(blob.Records) {
		return SnapshotHit{}, false
	}
	rec := blob.Records[idx]
	return SnapshotHit{Matched: rec.Host, ReportedAt: rec.ReportedAt, Kind: rec.Kind}, true
}

// Info 스냅샷 메타데이터
func (s *Snapshot) Info() (updatedAt time.Time, total int) {
	blob := s.view.Load()
	if blob == nil {
		return time.Time{}, 0
	}
	return blob.UpdatedAt, len(blob.Records)
}
