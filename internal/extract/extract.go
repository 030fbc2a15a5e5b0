// Package extract 정규화된 텍스트에서 전화번호/계좌/카드/URL/이메일 식별자를 추출한다.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/normalize"
)

var (
	accountRe = regexp.MustCompile(`\d{3,4}-\d{2,6}-\d{4,8}`)
	cardRe    = regexp.MustCompile(`\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}`)
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRe     = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z0-9\-]+\.)+[a-z]{2,}(?:/[^\s가-힣]*)?`)
	digitRe   = regexp.MustCompile(`\D`)

	mobilePrefixes = []string{"010", "011", "016", "017", "018", "019"}
)

// Extractor 화이트리스트 도메인 정보를 가진 식별자 추출기
type Extractor struct {
	whitelist []string
	shortURL  []string
}

// New 추출기 생성. whitelist 도메인으로 끝나는 URL은 safe로 표시되어
// 평판 조회에서 제외된다.
func New(whitelist, shortURL []string) *Extractor {
	return &Extractor{whitelist: whitelist, shortURL: shortURL}
}

type located struct {
	ident core.Identifier
	pos   int
}

// Extract 식별자 추출. 전화번호를 먼저 매칭하고, 같은 숫자 구간이
// 계좌/카드로 다시 매칭되지 않도록 마스킹한 텍스트에서 나머지를 찾는다.
// 결과는 텍스트 내 첫 등장 위치 순으로 정렬된다 (결정적 병합 순서).
func (e *Extractor) Extract(text string) []core.Identifier {
	var found []located
	seen := map[string]bool{}

	add := func(t core.IdentifierType, raw, canonical string, pos int, safe bool) {
		key := string(t) + ":" + canonical
		if canonical == "" || seen[key] {
			return
		}
		seen[key] = true
		found = append(found, located{
			ident: core.Identifier{Type: t, Raw: raw, Canonical: canonical, Safe: safe},
			pos:   pos,
		})
	}

	// 1. 전화번호
	for _, loc := range normalize.PhoneRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		add(core.IdentPhone, raw, digitsOnly(raw), loc[0], false)
	}
	masked := normalize.MaskPhones(text)

	// 2. 이메일 (도메인부가 URL로 재매칭되지 않도록 마스킹)
	for _, loc := range emailRe.FindAllStringIndex(masked, -1) {
		raw := masked[loc[0]:loc[1]]
		add(core.IdentEmail, raw, strings.ToLower(raw), loc[0], false)
	}
	masked = emailRe.ReplaceAllStringFunc(masked, func(m string) string {
		return strings.Repeat("#", len(m))
	})

	// 3. 카드번호 (계좌보다 먼저, 매칭 구간은 마스킹)
	for _, loc := range cardRe.FindAllStringIndex(masked, -1) {
		raw := masked[loc[0]:loc[1]]
		add(core.IdentCard, raw, digitsOnly(raw), loc[0], false)
	}
	masked = cardRe.ReplaceAllStringFunc(masked, func(m string) string {
		return strings.Repeat("#", len(m))
	})

	// 4. 계좌번호. 휴대전화 접두 숫자열은 전화번호로 재분류한다.
	for _, loc := range accountRe.FindAllStringIndex(masked, -1) {
		raw := masked[loc[0]:loc[1]]
		canonical := digitsOnly(raw)
		if isMobileShape(canonical) {
			add(core.IdentPhone, raw, canonical, loc[0], false)
			continue
		}
		add(core.IdentAccount, raw, canonical, loc[0], false)
	}

	// 5. URL
	for _, loc := range urlRe.FindAllStringIndex(masked, -1) {
		raw := trimURL(masked[loc[0]:loc[1]])
		if raw == "" {
			continue
		}
		canonical := strings.ToLower(raw)
		add(core.IdentURL, raw, canonical, loc[0], e.isWhitelisted(canonical))
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].pos != found[j].pos {
			return found[i].pos < found[j].pos
		}
		return found[i].ident.Type < found[j].ident.Type
	})

	out := make([]core.Identifier, len(found))
	for i, f := range found {
		out[i] = f.ident
	}
	return out
}

// IsShortURL 단축 URL 도메인 여부
func (e *Extractor) IsShortURL(url string) bool {
	host := HostOf(url)
	for _, d := range e.shortURL {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (e *Extractor) isWhitelisted(url string) bool {
	host := HostOf(url)
	for _, d := range e.whitelist {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// HostOf URL에서 호스트만 추출 (스킴/www./경로 제거, 소문자)
func HostOf(url string) string {
	host := strings.ToLower(strings.TrimSpace(url))
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return host
}

func digitsOnly(s string) string {
	return digitRe.ReplaceAllString(s, "")
}

func isMobileShape(digits string) bool {
	if len(digits) < 10 || len(digits) > 11 {
		return false
	}
	for _, p := range mobilePrefixes {
		if strings.HasPrefix(digits, p) {
			return true
		}
	}
	return false
}

func trimURL(raw string) string {
	return strings.TrimRight(raw, ".,;:!?)'\"")
}
