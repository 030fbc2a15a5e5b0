package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 분석 요청 관련 메트릭
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_analysis_total",
			Help: "Total number of analysis requests by agent and risk level",
		},
		[]string{"agent", "risk_level"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kat_analysis_duration_seconds",
			Help:    "Analysis latency by agent",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
		[]string{"agent"},
	)

	AnalysisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_analysis_errors_total",
			Help: "Total number of analysis errors",
		},
		[]string{"agent", "error_type"},
	)

	// 탐지 관련 메트릭
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_detections_total",
			Help: "Total number of findings by agent, category and risk level",
		},
		[]string{"agent", "category", "risk_level"},
	)

	ScamProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kat_scam_probability",
			Help:    "Scam probability distribution for incoming analysis",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// 외부 평판 조회 관련 메트릭
	ProviderLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kat_provider_lookup_duration_seconds",
			Help:    "Reputation provider lookup latency by source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ProviderLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_provider_lookups_total",
			Help: "Total number of reputation lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_provider_failures_total",
			Help: "Total number of provider failures by source and kind",
		},
		[]string{"source", "kind"},
	)

	// LLM 추론 관련 메트릭
	LLMInferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kat_llm_inference_duration_seconds",
			Help:    "LLM adjudication latency by model type",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"model"},
	)

	LLMFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kat_llm_fallbacks_total",
			Help: "Total number of fallbacks to rule result after LLM failure",
		},
	)

	// 캐시 관련 메트릭
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_cache_hits_total",
			Help: "Cache hits by tier",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kat_cache_misses_total",
			Help: "Cache misses by tier",
		},
		[]string{"tier"},
	)

	// 스냅샷 관련 메트릭
	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kat_phishing_snapshot_age_seconds",
			Help: "Age of the local phishing URL snapshot",
		},
	)

	SnapshotEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kat_phishing_snapshot_entries",
			Help: "Number of entries in the phishing URL snapshot",
		},
	)
)

// RecordAnalysis 분석 1건 기록
func RecordAnalysis(agent, riskLevel string, duration time.Duration) {
	AnalysisTotal.WithLabelValues(agent, riskLevel).Inc()
	AnalysisDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordAnalysisError 분석 오류 기록
func RecordAnalysisError(agent, errorType string) {
	AnalysisErrors.WithLabelValues(agent, errorType).Inc()
}

// RecordDetection 탐지 1건 기록
func RecordDetection(agent, category, riskLevel string) {
	DetectionsTotal.WithLabelValues(agent, category, riskLevel).Inc()
}

// RecordScamProbability 수신 분석 사기 확률 기록
func RecordScamProbability(probability int) {
	ScamProbability.Observe(float64(probability))
}

// RecordProviderLookup 평판 조회 기록
func RecordProviderLookup(source, outcome string, duration time.Duration) {
	ProviderLookupDuration.WithLabelValues(source).Observe(duration.Seconds())
	ProviderLookups.WithLabelValues(source, outcome).Inc()
}

// RecordProviderFailure 평판 조회 실패 기록
func RecordProviderFailure(source, kind string) {
	ProviderFailures.WithLabelValues(source, kind).Inc()
}

// RecordLLMInference LLM 추론 기록
func RecordLLMInference(model string, duration time.Duration) {
	LLMInferenceDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordLLMFallback LLM 실패 후 룰 결과 폴백 기록
func RecordLLMFallback() {
	LLMFallbacks.Inc()
}

// RecordCacheHit 캐시 히트 기록
func RecordCacheHit(tier string) {
	CacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss 캐시 미스 기록
func RecordCacheMiss(tier string) {
	CacheMisses.WithLabelValues(tier).Inc()
}

// SetSnapshotInfo 스냅샷 상태 게이지 갱신
func SetSnapshotInfo(age time.Duration, entries int) {
	SnapshotAge.Set(age.Seconds())
	SnapshotEntries.Set(float64(entries))
}
