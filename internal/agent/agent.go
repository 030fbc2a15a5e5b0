// Package agent 발신·수신 분석 파이프라인 오케스트레이션.
package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akfldk1028/KAT-sub000/internal/action"
	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/fusion"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
	"github.com/akfldk1028/KAT-sub000/internal/llm"
	"github.com/akfldk1028/KAT-sub000/internal/logging"
	"github.com/akfldk1028/KAT-sub000/internal/pii"
	"github.com/akfldk1028/KAT-sub000/internal/threat"
)

// Manager 두 에이전트와 공용 의존성을 묶는다
type Manager struct {
	Outgoing *OutgoingAgent
	Incoming *IncomingAgent
}

// Dependencies 에이전트 구성 요소. Adjudicator와 Audit은 nil일 수 있다.
type Dependencies struct {
	Loader      *catalog.Loader
	Extractor   *extract.Extractor
	Intel       *intel.Aggregator
	Trust       *conversation.Analyzer
	Adjudicator *llm.Adjudicator
	Audit       *logging.AuditLogger
	Config      config.AnalyzerConfig
	Clock       func() time.Time // nil이면 time.Now
}

// NewManager 에이전트 매니저 생성
func NewManager(deps Dependencies) *Manager {
	piiMatcher := pii.NewMatcher(deps.Loader)
	threatMatcher := threat.NewMatcher(deps.Loader)
	policy := action.NewPolicy(deps.Loader)
	fuser := fusion.Select(deps.Config.FusionMode)
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Manager{
		Outgoing: &OutgoingAgent{
			matcher:     piiMatcher,
			policy:      policy,
			adjudicator: deps.Adjudicator,
			audit:       deps.Audit,
			cfg:         deps.Config,
		},
		Incoming: &IncomingAgent{
			extractor:   deps.Extractor,
			matcher:     threatMatcher,
			intel:       deps.Intel,
			trust:       deps.Trust,
			fuser:       fuser,
			policy:      policy,
			adjudicator: deps.Adjudicator,
			audit:       deps.Audit,
			cfg:         deps.Config,
			clock:       clock,
		},
	}
}

// validateText 공통 요청 검증. 빈 텍스트는 허용되고 상한 초과만 거부한다.
func validateText(text string, maxBytes int) error {
	if maxBytes > 0 && len(text) > maxBytes {
		return apperrors.NewInvalidRequest(
			fmt.Sprintf("text exceeds %d bytes (got %d)", maxBytes, len(text)))
	}
	return nil
}

func newRequestID() string {
	return uuid.NewString()
}

func durationMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
