package conversation

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/akfldk1028/KAT-sub000/internal/core"
)

// 신뢰 등급 버킷
const (
	BucketHigh    = "high"
	BucketMedium  = "medium"
	BucketLow     = "low"
	BucketUnknown = "unknown"
)

// Profile 발신자 신뢰 분석 결과
type Profile struct {
	TrustScore       float64 // 0-100
	Bucket           string
	RiskAdjust       int // 종합 점수에 더해지는 발신자 보정치
	TimeAdjust       int // 수신 시각 보정치
	MessageCount     int
	RelationshipDays float64
	Reasons          []core.Reason
}

// NormalizedTrust 0-1 스케일 신뢰도
func (p Profile) NormalizedTrust() float64 {
	return p.TrustScore / 100
}

// Analyzer 대화 이력 기반 발신자 신뢰 분석기
type Analyzer struct {
	store Store
}

// NewAnalyzer 분석기 생성
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// Analyze 발신자 신뢰 프로필 산출. 저장소 오류는 "이력 없음"으로
// 흡수된다. financial은 텍스트 분석에서 금전 요구가 감지됐는지 여부.
func (a *Analyzer) Analyze(ctx context.Context, senderID, receiverID string, now time.Time, financial bool) Profile {
	return a.AnalyzeWithHistory(ctx, senderID, receiverID, 0, now, financial)
}

// AnalyzeWithHistory 요청에 동봉된 대화 이력 건수를 저장소 통계에
// 합산해 프로필을 산출한다
func (a *Analyzer) AnalyzeWithHistory(ctx context.Context, senderID, receiverID string, historyCount int, now time.Time, financial bool) Profile {
	var stats ContactStats
	if a.store != nil && senderID != "" {
		var err error
		stats, err = a.store.Stats(ctx, senderID, receiverID)
		if err != nil {
			log.Printf("[WARN] 대화 이력 조회 실패 (sender=%s): %v", senderID, err)
			stats = ContactStats{}
		}
	}
	if historyCount > 0 {
		stats.MessageCount += historyCount
	}
	return BuildProfile(stats, now, financial)
}

// Record 수신 메시지를 이력에 반영한다
func (a *Analyzer) Record(ctx context.Context, senderID, receiverID string, at time.Time) {
	if a.store == nil || senderID == "" {
		return
	}
	if err := a.store.Append(ctx, senderID, receiverID, at); err != nil {
		log.Printf("[WARN] 대화 이력 기록 실패 (sender=%s): %v", senderID, err)
	}
}

// BuildProfile 이력 요약에서 신뢰 프로필을 계산한다.
// 신뢰 점수는 메시지 수와 관계 기간 각각 로그 곡선으로 50점씩 기여한다.
func BuildProfile(stats ContactStats, now time.Time, financial bool) Profile {
	days := stats.RelationshipDays(now)
	countPart := math.Min(50, 10*logBase(1.5, float64(stats.MessageCount)+1))
	daysPart := math.Min(50, 15*logBase(1.3, days+1))
	trust := countPart + daysPart

	p := Profile{
		TrustScore:       trust,
		Bucket:           trustBucket(trust),
		MessageCount:     stats.MessageCount,
		RelationshipDays: days,
	}
	p.RiskAdjust = riskAdjust(p.Bucket, financial)
	p.TimeAdjust = timeAdjust(now.Hour())
	p.Reasons = buildReasons(p)
	return p
}

func logBase(base, x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Log(x) / math.Log(base)
}

func trustBucket(trust float64) string {
	switch {
	case trust >= 70:
		return BucketHigh
	case trust >= 40:
		return BucketMedium
	case trust > 0:
		return BucketLow
	default:
		return BucketUnknown
	}
}

func riskAdjust(bucket string, financial bool) int {
	switch bucket {
	case BucketUnknown:
		return 20
	case BucketLow:
		if financial {
			return 10
		}
		return 0
	case BucketHigh:
		return -20
	default:
		return 0
	}
}

// timeAdjust 심야(23시-06시) 수신은 위험 가중, 업무 시간(09-18시)은 감점
func timeAdjust(hour int) int {
	switch {
	case hour >= 23 || hour < 6:
		return 15
	case hour >= 9 && hour <= 18:
		return -5
	default:
		return 0
	}
}

func buildReasons(p Profile) []core.Reason {
	reasons := make([]core.Reason, 0, 2)
	switch p.Bucket {
	case BucketUnknown:
		reasons = append(reasons, core.Reason{
			Source:      "conversation",
			Description: "대화 이력이 없는 발신자입니다",
			ScoreImpact: float64(p.RiskAdjust),
			Weight:      1.0,
		})
	case BucketLow:
		if p.RiskAdjust > 0 {
			reasons = append(reasons, core.Reason{
				Source:      "conversation",
				Description: "대화 이력이 짧은 발신자의 금전 관련 요청입니다",
				ScoreImpact: float64(p.RiskAdjust),
				Weight:      1.0,
			})
		}
	case BucketHigh:
		reasons = append(reasons, core.Reason{
			Source:      "conversation",
			Description: "오랜 대화 이력이 있는 신뢰 발신자입니다",
			ScoreImpact: float64(p.RiskAdjust),
			Weight:      1.0,
		})
	}
	if p.TimeAdjust != 0 {
		desc := "업무 시간대 수신입니다"
		if p.TimeAdjust > 0 {
			desc = "심야 시간대 수신입니다"
		}
		reasons = append(reasons, core.Reason{
			Source:      "conversation",
			Description: desc,
			ScoreImpact: float64(p.TimeAdjust),
			Weight:      1.0,
		})
	}
	return reasons
}
