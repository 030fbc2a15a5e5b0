package normalize

import "testing"

func TestNormalizeHangulDigitRun(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"다시 구분자가 있는 주민번호", "구공공일일오 다시 일이삼사오육칠", "9001151234567"},
		{"연속 한글 숫자", "공일공 일이삼사 오육칠팔", "01012345678"},
		{"숫자 없는 문장", "안녕하세요 반갑습니다", "안녕하세요 반갑습니다"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeSeparatedDigits(t *testing.T) {
	got := Normalize("０１０.１２３４.５６７８")
	if got != "010-1234-5678" && got != "01012345678" && got != "010.1234.5678" {
		// 전각 접기만 검증: 구분자 처리 방식과 무관하게 숫자는 반각이어야 한다
		for _, r := range got {
			if r >= '０' && r <= '９' {
				t.Fatalf("전각 숫자가 남아 있음: %q", got)
			}
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"구공공일일오 다시 일이삼사오육칠",
		"계좌 110-555-667788 입니다",
		"０１０ー１２３４ー５６７８",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize가 멱등이 아님: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestMaskPhonesPreservesLength(t *testing.T) {
	in := "연락처 010-1234-5678 입니다"
	out := MaskPhones(in)
	if len(out) != len(in) {
		t.Fatalf("길이가 보존되지 않음: %d != %d", len(out), len(in))
	}
	if out == in {
		t.Fatal("전화번호가 마스킹되지 않음")
	}
}

func TestSuspiciousShape(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"제 계좌는 110-555-667788 입니다", true},
		{"주민번호 알려줘", true},
		{"900115-1234567", true},
		{"오늘 점심 뭐 먹을까", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := SuspiciousShape(tc.in); got != tc.want {
			t.Errorf("SuspiciousShape(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
