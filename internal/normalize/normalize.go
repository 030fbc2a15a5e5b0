// Package normalize 한국어 숫자 난독화 해제 전처리.
// 패턴 매칭 전에 한글 숫자, 자리 끊기, 변칙 구분자를 정규 숫자열로 되돌린다.
// 순수 함수이며 멱등하다: Normalize(Normalize(x)) == Normalize(x).
package normalize

import (
	"regexp"
	"strings"
)

// 한글 숫자 → 아라비아 숫자
var hangulDigits = map[rune]byte{
	'공': '0', '영': '0',
	'일': '1', '이': '2', '삼': '3', '사': '4',
	'오': '5', '육': '6', '칠': '7', '팔': '8', '구': '9',
}

var (
	// 한글 숫자 연속 구간. "다시" 같은 자리 끊기 어구는 구간 안에서 허용한다.
	hangulRunRe = regexp.MustCompile(`[공영일이삼사오육칠팔구](?:\s*(?:다시|그리고)?\s*[공영일이삼사오육칠팔구])+`)

	// 숫자 사이 변칙 구분자 (온점, 모음 ㅡ, 전각 하이픈류)
	digitSepRe = regexp.MustCompile(`(\d)\s*[.ㅡ－ー―~]\s*(\d)`)

	// 숫자 사이 공백과 자리 끊기 어구
	digitGapRe   = regexp.MustCompile(`(\d)\s{1,2}(\d)`)
	digitDasiRe  = regexp.MustCompile(`(\d)\s*(?:다시|그리고)\s*(\d)`)
	suspiciousRe = regexp.MustCompile(`[\d-]{8,}`)

	// PhoneRe 휴대전화 패턴. 계좌/카드 매칭 전에 이 패턴을 마스킹한다.
	PhoneRe = regexp.MustCompile(`01[016789]-?\d{3,4}-?\d{4}`)
)

// 민감정보 의심 키워드 (빠른 필터, LLM 에스컬레이션 트리거)
var suspiciousKeywords = []string{
	"계좌", "통장", "카드", "번호",
	"주민", "등록", "여권", "면허",
	"외국인", "비밀번호", "인증",
	"송금", "이체", "입금",
}

// Normalize 난독화된 숫자 표현을 정규 형태로 변환한다.
// 적용 순서: 전각 문자 변환 → 한글 숫자 치환 → 자리 끊기 제거 → 구분자 정리.
func Normalize(text string) string {
	out := foldWidth(text)
	out = replaceHangulRuns(out)
	out = fixpoint(out, func(s string) string {
		s = digitDasiRe.ReplaceAllString(s, "$1$2")
		s = digitSepRe.ReplaceAllString(s, "$1-$2")
		s = digitGapRe.ReplaceAllString(s, "$1$2")
		return s
	})
	return out
}

// MaskPhones 전화번호 구간을 같은 바이트 길이의 '#'로 치환한다.
// 계좌/카드 정규식이 전화번호 숫자 구간을 넘겨 매칭하는 것을 막는다.
func MaskPhones(text string) string {
	return PhoneRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat("#", len(m))
	})
}

// SuspiciousShape 민감정보가 의심되는 형태인지 빠르게 판정한다.
// 긴 숫자 구간 또는 민감정보 키워드가 있으면 true.
func SuspiciousShape(text string) bool {
	if suspiciousRe.MatchString(text) {
		return true
	}
	for _, kw := range suspiciousKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// foldWidth 전각 숫자/하이픈을 반각으로 변환
func foldWidth(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= '０' && r <= '９':
			b.WriteByte(byte('0' + (r - '０')))
		case r == '－' || r == '‐' || r == '–' || r == '—':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// replaceHangulRuns 한글 숫자 연속 구간을 아라비아 숫자열로 치환
func replaceHangulRuns(text string) string {
	return hangulRunRe.ReplaceAllStringFunc(text, func(run string) string {
		var b strings.Builder
		for _, r := range run {
			if d, ok := hangulDigits[r]; ok {
				b.WriteByte(d)
			}
		}
		return b.String()
	})
}

// fixpoint 변화가 없을 때까지 반복 적용 (멱등성 보장)
func fixpoint(s string, f func(string) string) string {
	for i := 0; i < 16; i++ {
		next := f(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}
