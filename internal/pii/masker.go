package pii

import (
	"sort"
	"strings"

	"github.com/akfldk1028/KAT-sub000/internal/core"
)

// MaskFindings 탐지 구간을 마스킹한 미리보기 텍스트를 만든다.
// 바이트 길이를 보존하며, 항목 유형별로 앞/뒤 일부만 남긴다.
func MaskFindings(text string, findings []core.PIIFinding) string {
	if len(findings) == 0 {
		return text
	}

	// 뒤에서부터 치환해야 앞쪽 위치가 흔들리지 않는다
	sorted := make([]core.PIIFinding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})

	masked := text
	for _, f := range sorted {
		start := f.Position
		end := start + len(f.Value)
		if start < 0 || end > len(masked) {
			continue
		}
		if masked[start:end] != f.Value {
			// 정규화/마스킹 순서가 어긋난 경우 원문 검색으로 보정
			idx := strings.Index(masked, f.Value)
			if idx < 0 {
				continue
			}
			start, end = idx, idx+len(f.Value)
		}
		masked = masked[:start] + maskValue(f.ItemID, f.Value) + masked[end:]
	}
	return masked
}

// maskValue 항목 유형별 마스킹. 구분자는 유지하고 바이트 길이를 보존한다.
func maskValue(itemID, value string) string {
	switch itemID {
	case "phone":
		// 010-1234-5678 → 010-****-5678
		return keepEdges(value, 3, 4)
	case "card":
		// 1234-5678-9012-3456 → 1234-****-****-3456
		return keepEdges(value, 4, 4)
	case "account":
		// 110-123-456789 → 110-***-*****9
		return keepEdges(value, 3, 1)
	case "email":
		if at := strings.IndexByte(value, '@'); at > 0 {
			return value[:1] + strings.Repeat("*", at-1) + value[at:]
		}
		return maskAll(value)
	case "resident_id", "foreigner_id":
		// 900101-1234567 → 900101-1******
		if len(value) > 8 {
			return value[:8] + strings.Repeat("*", len(value)-8)
		}
		return maskAll(value)
	default:
		return maskAll(value)
	}
}

// keepEdges 앞 head, 뒤 tail 문자는 남기고 나머지 영숫자를 '*'로 치환
func keepEdges(value string, head, tail int) string {
	b := []byte(value)
	for i := head; i < len(b)-tail; i++ {
		if isAlnum(b[i]) {
			b[i] = '*'
		}
	}
	return string(b)
}

// maskAll 구분자만 남기고 전부 '*'. 멀티바이트 문자는 바이트 단위로 치환해
// 길이를 보존한다.
func maskAll(value string) string {
	b := []byte(value)
	for i := range b {
		if b[i] != '-' && b[i] != ' ' && b[i] != '@' && b[i] != '.' {
			b[i] = '*'
		}
	}
	return string(b)
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
