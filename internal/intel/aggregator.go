package intel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/metrics"
)

const snapshotRiskScore = 95

// Aggregator 로컬 DB + 스냅샷 + 원격 프로바이더를 묶는 파사드.
// 원격 프로바이더는 nil일 수 있으며 그 경우 로컬 소스만 사용한다.
type Aggregator struct {
	localDB   *LocalReportDB
	snapshot  *Snapshot
	phone     PhoneReputationProvider
	account   AccountReputationProvider
	urlEngine URLReputationProvider
	cache     ReportCache
	timeout   time.Duration
	sem       *semaphore.Weighted
}

// AggregatorOptions Aggregator 구성 요소
type AggregatorOptions struct {
	LocalDB       *LocalReportDB
	Snapshot      *Snapshot
	Phone         PhoneReputationProvider
	Account       AccountReputationProvider
	URLEngine     URLReputationProvider
	Cache         ReportCache
	Timeout       time.Duration
	MaxConcurrent int
}

// NewAggregator 집계기 생성
func NewAggregator(opts AggregatorOptions) *Aggregator {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &Aggregator{
		localDB:   opts.LocalDB,
		snapshot:  opts.Snapshot,
		phone:     opts.Phone,
		account:   opts.Account,
		urlEngine: opts.URLEngine,
		cache:     opts.Cache,
		timeout:   opts.Timeout,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// CheckAll 식별자별 신고 이력을 병렬 조회한다. 결과는 입력 식별자와
// 같은 순서로 반환되며, 어떤 프로바이더가 실패해도 해당 항목은
// "신고 없음"으로 채워질 뿐 전체 호출은 실패하지 않는다.
func (a *Aggregator) CheckAll(ctx context.Context, idents []core.Identifier) []Report {
	reports := make([]Report, len(idents))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range idents {
		if !a.checkable(id) {
			reports[i] = noReport(id)
			continue
		}
		i, id := i, id
		g.Go(func() error {
			if err := a.sem.Acquire(gctx, 1); err != nil {
				reports[i] = noReport(id)
				return nil
			}
			defer a.sem.Release(1)
			reports[i] = a.lookupOne(gctx, id)
			return nil
		})
	}
	g.Wait()
	return reports
}

// checkable 화이트리스트 도메인과 이메일은 조회 대상에서 제외한다
func (a *Aggregator) checkable(id core.Identifier) bool {
	if id.Safe {
		return false
	}
	switch id.Type {
	case core.IdentPhone, core.IdentAccount, core.IdentURL:
		return true
	default:
		return false
	}
}

func (a *Aggregator) lookupOne(ctx context.Context, id core.Identifier) Report {
	if a.cache != nil {
		if rep, ok := a.cache.Get(ctx, string(id.Type), id.Canonical); ok {
			rep.Identifier = id
			return rep
		}
	}

	var rep Report
	switch id.Type {
	case core.IdentPhone:
		rep = a.lookupPhone(ctx, id)
	case core.IdentAccount:
		rep = a.lookupAccount(ctx, id)
	case core.IdentURL:
		rep = a.lookupURL(ctx, id)
	default:
		return noReport(id)
	}

	if rep.Reported && rep.ReportCount < 1 {
		rep.ReportCount = 1
	}
	if a.cache != nil {
		a.cache.Set(ctx, string(id.Type), id.Canonical, rep)
	}
	return rep
}

func (a *Aggregator) lookupPhone(ctx context.Context, id core.Identifier) Report {
	local, localHit := a.localDB.LookupPhone(id.Canonical)

	if a.phone != nil {
		remote, err := a.lookupRemote(ctx, "phone_reputation", func(ctx context.Context) (Reputation, error) {
			return a.phone.Lookup(ctx, id.Canonical)
		})
		if err == nil && remote.IsReported {
			return reputationReport(id, remote, "phone_reputation")
		}
	}
	if localHit {
		return reputationReport(id, local, "local_db")
	}
	return noReport(id)
}

func (a *Aggregator) lookupAccount(ctx context.Context, id core.Identifier) Report {
	local, localHit := a.localDB.LookupAccount(id.Canonical)

	if a.account != nil {
		remote, err := a.lookupRemote(ctx, "account_reputation", func(ctx context.Context) (Reputation, error) {
			return a.account.Lookup(ctx, id.Canonical, "")
		})
		if err == nil && remote.IsReported {
			return reputationReport(id, remote, "account_reputation")
		}
	}
	if localHit {
		return reputationReport(id, local, "local_db")
	}
	return noReport(id)
}

func (a *Aggregator) lookupURL(ctx context.Context, id core.Identifier) Report {
	// 스냅샷 우선: 로컬 히트는 원격 호출 없이 즉시 확정
	if a.snapshot != nil {
		if hit, ok := a.snapshot.Contains(id.Canonical); ok {
			return Report{
				Identifier:  id,
				Reported:    true,
				ReportCount: 1,
				RiskScore:   snapshotRiskScore,
				ThreatType:  hit.Kind,
				Details:     "피싱 URL 스냅샷 등재: " + hit.Matched,
				ReportedAt:  hit.ReportedAt,
				Source:      "snapshot",
				FetchedAt:   time.Now(),
			}
		}
	}

	if a.urlEngine == nil {
		return noReport(id)
	}
	start := time.Now()
	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	verdict, err := a.urlEngine.Lookup(lookupCtx, id.Canonical)
	metrics.RecordProviderLookup("url_engine", outcomeOf(err), time.Since(start))
	if err != nil {
		recordFailure("url_engine", err)
		return noReport(id)
	}
	if verdict.Malicious == 0 && verdict.Suspicious == 0 {
		return noReport(id)
	}
	return Report{
		Identifier:  id,
		Reported:    true,
		ReportCount: verdict.Malicious + verdict.Suspicious,
		RiskScore:   verdictRisk(verdict),
		ThreatType:  "malicious_url",
		Details:     urlVerdictDetails(verdict),
		Source:      "url_engine",
		FetchedAt:   time.Now(),
	}
}

func (a *Aggregator) lookupRemote(ctx context.Context, source string, fn func(context.Context) (Reputation, error)) (Reputation, error) {
	start := time.Now()
	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	rep, err := fn(lookupCtx)
	metrics.RecordProviderLookup(source, outcomeOf(err), time.Since(start))
	if err != nil {
		recordFailure(source, err)
		return Reputation{}, err
	}
	return rep, nil
}

func reputationReport(id core.Identifier, rep Reputation, source string) Report {
	return Report{
		Identifier:  id,
		Reported:    rep.IsReported,
		ReportCount: rep.Count,
		RiskScore:   rep.RiskScore,
		ThreatType:  rep.ThreatType,
		Details:     rep.Details,
		ReportedAt:  rep.When,
		Source:      source,
		FetchedAt:   time.Now(),
	}
}

// verdictRisk 엔진 판정 비율을 0-100 위험 점수로 변환한다
func verdictRisk(v URLVerdict) int {
	if v.Total == 0 {
		return 0
	}
	score := (v.Malicious*100 + v.Suspicious*50) / v.Total
	if v.Malicious > 0 && score < 60 {
		score = 60
	}
	if score > 100 {
		score = 100
	}
	return score
}

func urlVerdictDetails(v URLVerdict) string {
	return fmt.Sprintf("URL 검사 엔진 판정: 악성 %d건 / 의심 %d건", v.Malicious, v.Suspicious)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

func recordFailure(source string, err error) {
	var pe *apperrors.ProviderError
	if errors.As(err, &pe) {
		metrics.RecordProviderFailure(source, pe.Kind.String())
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordProviderFailure(source, apperrors.FailureTimeout.String())
		return
	}
	metrics.RecordProviderFailure(source, apperrors.FailureUnavailable.String())
}
