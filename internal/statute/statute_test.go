package statute

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestNormalizeNameCollapsesSpacingVariants(t *testing.T) {
	cases := [][2]string{
		{"산업안전보건법 시행령", "산업안전보건법시행령"},
		{"재난 및 안전관리 기본법", "재난및안전관리기본법"},
		{"중대재해 처벌 등에 관한 법률", "중대재해처벌등에관한법률"},
		{"산업안전·보건법", "산업안전보건법"},
	}
	for _, c := range cases {
		if got := NormalizeName(c[0]); got != c[1] {
			t.Fatalf("NormalizeName(%q) = %q, want %q", c[0], got, c[1])
		}
	}
}

func TestNormalizeNameComposesDecomposedHangul(t *testing.T) {
	decomposed := norm.NFD.String("산업안전보건법")
	if decomposed == "산업안전보건법" {
		t.Fatal("NFD input unexpectedly already composed")
	}
	if got := NormalizeName(decomposed); got != "산업안전보건법" {
		t.Fatalf("NormalizeName(NFD) = %q, want composed form", got)
	}
	if got := DetectName(norm.NFD.String("산업안전보건법 시행령 제3조")); got != "산업안전보건법시행령" {
		t.Fatalf("DetectName(NFD) = %q, want 산업안전보건법시행령", got)
	}
}

func TestDetectNamePrefersMostSpecificTitle(t *testing.T) {
	got := DetectName("산업안전보건법 시행규칙 제3조 알려줘")
	if got != "산업안전보건법시행규칙" {
		t.Fatalf("DetectName = %q, want 산업안전보건법시행규칙", got)
	}
}

func TestDetectNameMissesUnknownLaw(t *testing.T) {
	if got := DetectName("도로교통법 제5조"); got != "" {
		t.Fatalf("DetectName = %q, want empty", got)
	}
}

func TestDetectArticle(t *testing.T) {
	cases := map[string]string{
		"산업안전보건법 제22조의 내용": "22",
		"22 조 기준이 뭐야":       "22",
		"산업안전보건법이 뭐야":      "",
		"제 107 조 과태료 알려줘":   "107",
	}
	for in, want := range cases {
		if got := DetectArticle(in); got != want {
			t.Fatalf("DetectArticle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalLinkEscapesLawName(t *testing.T) {
	link := CanonicalLink("산업안전보건법", "22")
	if link != "https://www.law.go.kr/법령/%EC%82%B0%EC%97%85%EC%95%88%EC%A0%84%EB%B3%B4%EA%B1%B4%EB%B2%95/제22조" {
		t.Fatalf("unexpected link: %s", link)
	}
}
