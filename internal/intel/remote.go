package intel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
)

// ReportLookupClient 원격 신고 조회 API 클라이언트.
// keyword 기반 검색 후 caution 플래그와 result_code로 신고 여부를 판정한다.
type ReportLookupClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries uint64
}

// NewReportLookupClient 원격 신고 조회 클라이언트 생성
func NewReportLookupClient(baseURL, apiKey string, timeout time.Duration, maxRetries int) *ReportLookupClient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReportLookupClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
	}
}

type reportLookupResponse struct {
	Caution string `json:"caution"`
	Result  []struct {
		ResultCode string `json:"result_code"`
		Title      string `json:"title"`
		RegDate    string `json:"reg_date"`
	} `json:"result"`
	TotalCount int `json:"total_count"`
}

// resultCodeNames 조회 응답 result_code 분류명
var resultCodeNames = map[string]string{
	"1": "전화번호 사기 신고",
	"2": "계좌번호 사기 신고",
	"3": "휴대폰번호 사기 신고",
	"4": "기타 사기 신고",
}

// Lookup PhoneReputationProvider 구현
func (c *ReportLookupClient) Lookup(ctx context.Context, canonical string) (Reputation, error) {
	return c.search(ctx, canonical)
}

// AccountProvider AccountReputationProvider 어댑터 반환
func (c *ReportLookupClient) AccountProvider() AccountReputationProvider {
	return accountLookupAdapter{c}
}

type accountLookupAdapter struct {
	c *ReportLookupClient
}

func (a accountLookupAdapter) Lookup(ctx context.Context, canonical, _ string) (Reputation, error) {
	return a.c.search(ctx, canonical)
}

func (c *ReportLookupClient) search(ctx context.Context, keyword string) (Reputation, error) {
	var resp reportLookupResponse

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		endpoint := fmt.Sprintf("%s/api/search?keyword=%s", c.baseURL, url.QueryEscape(keyword))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer res.Body.Close()

		switch {
		case res.StatusCode == http.StatusOK:
		case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
			return apperrors.NewProviderError("report_lookup", apperrors.FailureAuth,
				fmt.Errorf("status %d", res.StatusCode))
		case res.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(apperrors.NewProviderError("report_lookup",
				apperrors.FailureRateLimited, fmt.Errorf("status %d", res.StatusCode)))
		case res.StatusCode >= 500:
			return retry.RetryableError(apperrors.NewProviderError("report_lookup",
				apperrors.FailureUnavailable, fmt.Errorf("status %d", res.StatusCode)))
		default:
			return apperrors.NewProviderError("report_lookup", apperrors.FailureUnavailable,
				fmt.Errorf("status %d", res.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return apperrors.NewProviderError("report_lookup", apperrors.FailureMalformed, err)
		}
		return nil
	})
	if err != nil {
		return Reputation{}, wrapProviderErr("report_lookup", err)
	}

	if resp.Caution != "Y" || len(resp.Result) == 0 {
		return Reputation{}, nil
	}
	first := resp.Result[0]
	return Reputation{
		IsReported: true,
		Count:      resp.TotalCount,
		When:       first.RegDate,
		Details:    first.Title,
		ThreatType: resultCodeNames[first.ResultCode],
	}, nil
}

// URLEngineClient URL 평판 엔진 클라이언트. URL을 base64url ID로 조회하며
// 무료 API 정책에 맞춰 호출 간 최소 간격을 지킨다.
type URLEngineClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewURLEngineClient URL 평판 엔진 클라이언트 생성
func NewURLEngineClient(baseURL, apiKey string, timeout, minInterval time.Duration) *URLEngineClient {
	return &URLEngineClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		minInterval: minInterval,
	}
}

type urlEngineResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// Lookup URLReputationProvider 구현
func (c *URLEngineClient) Lookup(ctx context.Context, target string) (URLVerdict, error) {
	if err := c.waitInterval(ctx); err != nil {
		return URLVerdict{}, err
	}

	id := base64.RawURLEncoding.EncodeToString([]byte(target))
	endpoint := fmt.Sprintf("%s/api/v3/urls/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return URLVerdict{}, err
	}
	req.Header.Set("x-apikey", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return URLVerdict{}, wrapProviderErr("url_engine", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusNotFound:
		// 엔진에 등록되지 않은 URL은 무판정으로 취급
		return URLVerdict{}, nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return URLVerdict{}, apperrors.NewProviderError("url_engine", apperrors.FailureAuth,
			fmt.Errorf("status %d", res.StatusCode))
	case res.StatusCode == http.StatusTooManyRequests:
		return URLVerdict{}, apperrors.NewProviderError("url_engine", apperrors.FailureRateLimited,
			fmt.Errorf("status %d", res.StatusCode))
	default:
		return URLVerdict{}, apperrors.NewProviderError("url_engine", apperrors.FailureUnavailable,
			fmt.Errorf("status %d", res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return URLVerdict{}, wrapProviderErr("url_engine", err)
	}
	var resp urlEngineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return URLVerdict{}, apperrors.NewProviderError("url_engine", apperrors.FailureMalformed, err)
	}

	stats := resp.Data.Attributes.LastAnalysisStats
	return URLVerdict{
		Malicious:  stats.Malicious,
		Suspicious: stats.Suspicious,
		Harmless:   stats.Harmless,
		Undetected: stats.Undetected,
		Total:      stats.Malicious + stats.Suspicious + stats.Harmless + stats.Undetected,
	}, nil
}

func (c *URLEngineClient) waitInterval(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastCall.Add(c.minInterval)
	// 유휴 시간이 길었어도 예약 시각이 과거로 밀리면 안 된다.
	if next.Before(now) {
		next = now
	}
	wait := next.Sub(now)
	c.lastCall = next
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// wrapProviderErr 컨텍스트/전송 오류를 ProviderError로 통일한다
func wrapProviderErr(source string, err error) error {
	var pe *apperrors.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	kind := apperrors.FailureUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = apperrors.FailureTimeout
	}
	return apperrors.NewProviderError(source, kind, err)
}
