package extract

import (
	"testing"

	"github.com/akfldk1028/KAT-sub000/internal/core"
)

func newTestExtractor() *Extractor {
	return New(
		[]string{"kakao.com", "naver.com", "gov.kr"},
		[]string{"bit.ly", "han.gl", "tinyurl.com"},
	)
}

func findType(ids []core.Identifier, t core.IdentifierType) []core.Identifier {
	var out []core.Identifier
	for _, id := range ids {
		if id.Type == t {
			out = append(out, id)
		}
	}
	return out
}

func TestExtractPhoneAndAccount(t *testing.T) {
	e := newTestExtractor()
	ids := e.Extract("연락처는 010-1234-5678 이고 계좌는 110-555-667788 입니다")

	phones := findType(ids, core.IdentPhone)
	if len(phones) != 1 || phones[0].Canonical != "01012345678" {
		t.Fatalf("전화번호 추출 실패: %+v", phones)
	}
	accounts := findType(ids, core.IdentAccount)
	if len(accounts) != 1 || accounts[0].Canonical != "110555667788" {
		t.Fatalf("계좌번호 추출 실패: %+v", accounts)
	}
}

func TestExtractMobileShapeReclassified(t *testing.T) {
	e := newTestExtractor()
	// 하이픈 배치가 계좌 모양이지만 숫자 열은 휴대전화 형태
	ids := e.Extract("번호 0101-234-5678 로 연락주세요")

	if accounts := findType(ids, core.IdentAccount); len(accounts) != 0 {
		t.Fatalf("휴대전화 형태가 계좌로 분류됨: %+v", accounts)
	}
	phones := findType(ids, core.IdentPhone)
	if len(phones) != 1 || phones[0].Canonical != "01012345678" {
		t.Fatalf("휴대전화 재분류 실패: %+v", phones)
	}
}

func TestExtractDedup(t *testing.T) {
	e := newTestExtractor()
	ids := e.Extract("010-1234-5678 또 010-1234-5678")
	if len(ids) != 1 {
		t.Fatalf("중복 제거 실패: %d개 반환", len(ids))
	}
}

func TestExtractURLWhitelist(t *testing.T) {
	e := newTestExtractor()
	ids := e.Extract("공지 https://www.naver.com/news 와 http://bit.ly/abc123 확인")

	urls := findType(ids, core.IdentURL)
	if len(urls) != 2 {
		t.Fatalf("URL 추출 실패: %+v", urls)
	}
	var safe, unsafe int
	for _, u := range urls {
		if u.Safe {
			safe++
		} else {
			unsafe++
		}
	}
	if safe != 1 || unsafe != 1 {
		t.Fatalf("화이트리스트 판정 오류: safe=%d unsafe=%d", safe, unsafe)
	}
}

func TestExtractOrderDeterministic(t *testing.T) {
	e := newTestExtractor()
	text := "계좌 110-555-667788, 전화 010-1234-5678, 링크 http://bit.ly/x"
	first := e.Extract(text)
	for i := 0; i < 10; i++ {
		again := e.Extract(text)
		if len(again) != len(first) {
			t.Fatal("추출 개수가 비결정적")
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("추출 순서가 비결정적: %d번째 %+v != %+v", j, again[j], first[j])
			}
		}
	}
}

func TestIsShortURL(t *testing.T) {
	e := newTestExtractor()
	if !e.IsShortURL("http://bit.ly/abc") {
		t.Error("bit.ly가 단축 URL로 판정되지 않음")
	}
	if e.IsShortURL("https://naver.com/x") {
		t.Error("naver.com이 단축 URL로 판정됨")
	}
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://www.naver.com/news?x=1": "naver.com",
		"http://bit.ly/abc":              "bit.ly",
		"Kakao.com":                      "kakao.com",
	}
	for in, want := range cases {
		if got := HostOf(in); got != want {
			t.Errorf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}
