package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/core"
)

// 지원하는 카탈로그 메이저 버전 범위
const (
	piiVersionMin    = 1
	piiVersionMax    = 2
	threatVersionMin = 2
	threatVersionMax = 3
)

// ---------- 파일 스키마 ----------

type piiFile struct {
	Version    string                    `json:"version"`
	Categories map[string]piiCategory    `json:"categories"`
	Rules      []CombinationRule         `json:"combination_rules"`
	Thresholds PIIThresholds             `json:"thresholds"`
	Documents  map[string]DocumentType   `json:"document_types"`
}

type piiCategory struct {
	NameKo    string             `json:"name_ko"`
	Tier      int                `json:"tier"`
	RiskLevel string             `json:"risk_level"`
	Items     map[string]piiItem `json:"items"`
}

type piiItem struct {
	NameKo    string `json:"name_ko"`
	RiskLevel string `json:"risk_level"` // 비어 있으면 카테고리 레벨 사용
	Regex     string `json:"regex"`
}

type threatFile struct {
	Version        string                      `json:"version"`
	Categories     map[string]threatCategory   `json:"threat_categories"`
	Scenarios      map[string]scenarioEntry    `json:"known_scam_patterns"`
	RiskScoring    RiskScoring                 `json:"risk_scoring"`
	Templates      map[string]ResponseTemplate `json:"response_templates"`
	ScenarioPolicy map[string]ScenarioPolicy   `json:"scenario_policies"`
	Contacts       []EmergencyContact          `json:"emergency_contacts"`
	SafePatterns   safePatterns                `json:"safe_patterns"`
}

type threatCategory struct {
	NameKo   string          `json:"name_ko"`
	Weight   float64         `json:"weight"`
	Patterns []threatPattern `json:"patterns"`
}

type threatPattern struct {
	ID              string   `json:"id"`
	NameKo          string   `json:"name_ko"`
	RiskLevel       string   `json:"risk_level"`
	Regex           string   `json:"regex"`
	Keywords        []string `json:"keywords"`
	ContextKeywords []string `json:"context_keywords"`
}

type scenarioEntry struct {
	NameKo   string   `json:"name_ko"`
	Category string   `json:"category"`
	Required []string `json:"required_pattern_sequence"`
}

type safePatterns struct {
	WhitelistDomains []string `json:"whitelist_domains"`
	ShortURLDomains  []string `json:"short_url_domains"`
}

// ---------- 로드 후 불변 뷰 ----------

// PIIEntry 컴파일된 민감정보 패턴 한 건
type PIIEntry struct {
	ItemID     string
	CategoryID string
	NameKo     string
	Tier       int
	Level      core.RiskLevel
	Re         *regexp.Regexp
}

// CombinationRule 선언적 조합 규칙. Require가 비어 있으면 MinTier3 규칙.
type CombinationRule struct {
	ID       string   `json:"id"`
	Require  []string `json:"require"`
	MinTier3 int      `json:"min_tier3"`
	RaiseTo  string   `json:"raise_to"`
	ReasonKo string   `json:"reason_ko"`
}

// RaiseLevel RaiseTo의 파싱 결과
func (r CombinationRule) RaiseLevel() core.RiskLevel {
	level, _ := core.ParseRiskLevel(r.RaiseTo)
	return level
}

// PIIThresholds 민감정보 카탈로그 임계값
type PIIThresholds struct {
	SecretRecommend string `json:"secret_recommend"`
}

// DocumentType 문서(신분증 등) 유형 정의
type DocumentType struct {
	NameKo    string `json:"name_ko"`
	RiskLevel string `json:"risk_level"`
}

// PII 민감정보 카탈로그의 불변 뷰
type PII struct {
	Version    string
	Entries    []PIIEntry // tier 오름차순, 동일 tier 내 item id 순 (결정적 순서)
	Rules      []CombinationRule
	Documents  map[string]DocumentType
	SecretFrom core.RiskLevel // 이 레벨 이상이면 시크릿 전송 권장
}

// ThreatEntry 컴파일된 위협 패턴 한 건
type ThreatEntry struct {
	PatternID       string
	CategoryCode    string // A-1 .. C-3
	CategoryNameKo  string
	NameKo          string
	Weight          float64
	Level           core.RiskLevel
	Keywords        []string
	ContextKeywords []string
	Re              *regexp.Regexp
}

// Scenario 알려진 사기 시나리오. Required 패턴 id의 포함 비율이 커버리지가 된다.
type Scenario struct {
	ID       string
	NameKo   string
	Category string
	Required []string
}

// RiskScoring 위협 점수 파라미터 (가산식, 내부 0-150 스케일)
type RiskScoring struct {
	BasePoints           map[string]int `json:"base_points"`
	Bonuses              ScoringBonuses `json:"bonuses"`
	CredentialPatternIDs []string       `json:"credential_pattern_ids"`
	MaxInternalScore     int            `json:"max_internal_score"`
	LevelThresholds      Thresholds     `json:"level_thresholds"`
}

// ScoringBonuses 가산 보너스 점수
type ScoringBonuses struct {
	SuspiciousURL     int `json:"suspicious_url"`
	CredentialRequest int `json:"credential_request"`
	KnownScenario     int `json:"known_scenario"`
}

// Thresholds 내부 점수 → 위협 레벨 경계
type Thresholds struct {
	Suspicious int `json:"suspicious"`
	Dangerous  int `json:"dangerous"`
	Critical   int `json:"critical"`
}

// ResponseTemplate 액션 유형별 UI 응답 템플릿
type ResponseTemplate struct {
	UserMessage string   `json:"user_message"`
	Steps       []string `json:"steps"`
}

// ScenarioPolicy 시나리오 매칭 시 정책 오버라이드 (하향은 허용되지 않음)
type ScenarioPolicy struct {
	OverrideAction string   `json:"override_action"`
	SpecialMessage string   `json:"special_message"`
	Steps          []string `json:"steps"`
}

// EmergencyContact 긴급 연락처
type EmergencyContact struct {
	NameKo string `json:"name_ko"`
	Number string `json:"number"`
}

// Threat 위협 카탈로그의 불변 뷰
type Threat struct {
	Version          string
	Entries          []ThreatEntry // 카테고리 코드 순, 카테고리 내 선언 순
	Scenarios        []Scenario    // 시나리오 id 순
	Scoring          RiskScoring
	Templates        map[string]ResponseTemplate
	ScenarioPolicies map[string]ScenarioPolicy
	Contacts         []EmergencyContact
	WhitelistDomains []string
	ShortURLDomains  []string
	categoryNames    map[string]string
}

// CategoryNameKo 분류 코드의 한글 이름
func (t *Threat) CategoryNameKo(code string) string {
	return t.categoryNames[code]
}

// ValidCategory 카탈로그에 정의된 분류 코드인지 확인
func (t *Threat) ValidCategory(code string) bool {
	_, ok := t.categoryNames[code]
	return ok
}

// ---------- 로더 ----------

// Loader 두 카탈로그를 로드하고 원자적으로 교체 가능한 참조로 노출한다.
type Loader struct {
	piiPath    string
	threatPath string
	pii        atomic.Pointer[PII]
	threat     atomic.Pointer[Threat]
}

// NewLoader 카탈로그 로더 생성 (Load 호출 전에는 뷰가 비어 있음)
func NewLoader(piiPath, threatPath string) *Loader {
	return &Loader{piiPath: piiPath, threatPath: threatPath}
}

// Load 두 카탈로그를 읽어 검증 후 교체. 기동 시 실패는 치명적이다.
func (l *Loader) Load() error {
	pii, err := loadPII(l.piiPath)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCatalogLoad, err)
	}
	threat, err := loadThreat(l.threatPath)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCatalogLoad, err)
	}
	l.pii.Store(pii)
	l.threat.Store(threat)
	return nil
}

// Reload 재로드. 실패하면 기존 뷰를 유지한다 (부분 교체 없음).
func (l *Loader) Reload() error {
	return l.Load()
}

// PII 현재 민감정보 카탈로그 뷰
func (l *Loader) PII() *PII { return l.pii.Load() }

// Threat 현재 위협 카탈로그 뷰
func (l *Loader) Threat() *Threat { return l.threat.Load() }

func loadPII(path string) (*PII, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file piiFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := checkVersion(file.Version, piiVersionMin, piiVersionMax); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	view := &PII{
		Version:   file.Version,
		Rules:     file.Rules,
		Documents: file.Documents,
	}

	secretFrom, err := core.ParseRiskLevel(file.Thresholds.SecretRecommend)
	if err != nil {
		secretFrom = core.RiskMedium
	}
	view.SecretFrom = secretFrom

	seen := map[string]bool{}

	catIDs := make([]string, 0, len(file.Categories))
	for id := range file.Categories {
		catIDs = append(catIDs, id)
	}
	sort.Slice(catIDs, func(i, j int) bool {
		a, b := file.Categories[catIDs[i]], file.Categories[catIDs[j]]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		return catIDs[i] < catIDs[j]
	})

	for _, catID := range catIDs {
		cat := file.Categories[catID]
		catLevel, err := core.ParseRiskLevel(cat.RiskLevel)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", catID, err)
		}

		itemIDs := make([]string, 0, len(cat.Items))
		for id := range cat.Items {
			itemIDs = append(itemIDs, id)
		}
		sort.Strings(itemIDs)

		for _, itemID := range itemIDs {
			item := cat.Items[itemID]
			if seen[itemID] {
				return nil, fmt.Errorf("duplicate pattern id %q", itemID)
			}
			seen[itemID] = true

			level := catLevel
			if item.RiskLevel != "" {
				if parsed, err := core.ParseRiskLevel(item.RiskLevel); err == nil {
					level = parsed
				}
			}

			re, err := regexp.Compile(item.Regex)
			if err != nil {
				// 개별 패턴 오류는 건너뛴다. 요청 시점 panic 금지.
				log.Printf("catalog: skip pii pattern %s: %v", itemID, err)
				continue
			}

			view.Entries = append(view.Entries, PIIEntry{
				ItemID:     itemID,
				CategoryID: catID,
				NameKo:     item.NameKo,
				Tier:       cat.Tier,
				Level:      level,
				Re:         re,
			})
		}
	}

	for _, rule := range view.Rules {
		if _, err := core.ParseRiskLevel(rule.RaiseTo); err != nil {
			return nil, fmt.Errorf("combination rule %s: %w", rule.ID, err)
		}
	}

	return view, nil
}

func loadThreat(path string) (*Threat, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file threatFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := checkVersion(file.Version, threatVersionMin, threatVersionMax); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	view := &Threat{
		Version:          file.Version,
		Scoring:          file.RiskScoring,
		Templates:        file.Templates,
		ScenarioPolicies: file.ScenarioPolicy,
		Contacts:         file.Contacts,
		WhitelistDomains: file.SafePatterns.WhitelistDomains,
		ShortURLDomains:  file.SafePatterns.ShortURLDomains,
		categoryNames:    map[string]string{},
	}

	seen := map[string]bool{}

	codes := make([]string, 0, len(file.Categories))
	for code := range file.Categories {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		cat := file.Categories[code]
		view.categoryNames[code] = cat.NameKo
		for _, pat := range cat.Patterns {
			if seen[pat.ID] {
				return nil, fmt.Errorf("duplicate pattern id %q", pat.ID)
			}
			seen[pat.ID] = true

			level, err := core.ParseRiskLevel(pat.RiskLevel)
			if err != nil {
				return nil, fmt.Errorf("threat pattern %s: %w", pat.ID, err)
			}

			entry := ThreatEntry{
				PatternID:       pat.ID,
				CategoryCode:    code,
				CategoryNameKo:  cat.NameKo,
				NameKo:          pat.NameKo,
				Weight:          cat.Weight,
				Level:           level,
				Keywords:        pat.Keywords,
				ContextKeywords: pat.ContextKeywords,
			}
			if pat.Regex != "" {
				re, err := regexp.Compile(pat.Regex)
				if err != nil {
					log.Printf("catalog: skip threat pattern %s: %v", pat.ID, err)
					continue
				}
				entry.Re = re
			}
			view.Entries = append(view.Entries, entry)
		}
	}

	scenarioIDs := make([]string, 0, len(file.Scenarios))
	for id := range file.Scenarios {
		scenarioIDs = append(scenarioIDs, id)
	}
	sort.Strings(scenarioIDs)
	for _, id := range scenarioIDs {
		s := file.Scenarios[id]
		if len(s.Required) == 0 {
			return nil, fmt.Errorf("scenario %s: empty required_pattern_sequence", id)
		}
		for _, pid := range s.Required {
			if !seen[pid] {
				return nil, fmt.Errorf("scenario %s: unknown pattern id %q", id, pid)
			}
		}
		view.Scenarios = append(view.Scenarios, Scenario{
			ID:       id,
			NameKo:   s.NameKo,
			Category: s.Category,
			Required: s.Required,
		})
	}

	if view.Scoring.MaxInternalScore <= 0 {
		view.Scoring.MaxInternalScore = 150
	}
	if len(view.Scoring.BasePoints) == 0 {
		return nil, fmt.Errorf("risk_scoring.base_points missing")
	}

	return view, nil
}

// checkVersion "x.y.z" 형식의 메이저 버전이 지원 범위 안인지 확인
func checkVersion(version string, min, max int) error {
	if version == "" {
		return fmt.Errorf("missing catalog version")
	}
	major, err := strconv.Atoi(strings.SplitN(version, ".", 2)[0])
	if err != nil {
		return fmt.Errorf("bad catalog version %q", version)
	}
	if major < min || major > max {
		return fmt.Errorf("unsupported catalog version %q (supported majors %d-%d)", version, min, max)
	}
	return nil
}
