package flowrec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "crystalline silica", input: "결정형 유리규산(석영)", want: "석영"},
		{name: "zinc oxide dust", input: "산화아연(분진)", want: "산화아연(분진)"},
		{name: "zinc oxide fume", input: "산화아연(흄)", want: "산화아연(흄)"},
		{name: "talc without asbestos", input: "활석(석면불포함)", want: "활석(석면불포함)"},
		{name: "talc", input: "활석 분진", want: "활석"},
		{name: "coal", input: "석탄 분진", want: "석탄"},
		{name: "aluminium compounds", input: "알루미늄 및 그 화합물", want: "알루미늄"},
		{name: "cobalt", input: "코발트(금속분진)", want: "코발트"},
		{name: "vinyl chloride", input: "염화비닐 및 함유물질", want: "염화비닐"},
		{name: "TDI maps to MDI", input: "2,4-TDI", want: "MDI"},
		{name: "MDI full name", input: "메틸렌디페닐디이소시아네이트", want: "MDI"},
		{name: "MDI spaced name", input: "4,4'-메틸렌디페닐 디이소시아네이트", want: "MDI"},
		{name: "antimony", input: "안티몬과그화합물", want: "안티몬"},
		{name: "THF", input: "THF", want: "테트라하이드로퓨란"},
		{name: "indium spelling", input: "인디움", want: "인듐"},
		{name: "barium", input: "바륨및그가용성화합물", want: "바륨"},
		{name: "soluble chromium kept verbatim", input: "크롬(6가)화합물(수용성)", want: "크롬(6가)화합물(수용성)"},
		{name: "cadmium canonical", input: "카드뮴 및 그 화합물", want: "카드뮴및그화합물"},
		{name: "cadmium bare", input: "카드뮴", want: "카드뮴및그화합물"},
		{name: "qualifier stripped", input: "톨루엔(Toluene)", want: "톨루엔"},
		{name: "full width parentheses", input: "톨루엔（Toluene）", want: "톨루엔"},
		{name: "locant commas kept", input: "1,1-디클로로에탄, 아세톤", want: "1,1-디클로로에탄"},
		{name: "letter locants kept", input: "N,N-디메틸포름아미드", want: "N,N-디메틸포름아미드"},
		{name: "first of list", input: "아세톤, 톨루엔", want: "아세톤"},
		{name: "latin list", input: "Benzene,Toluene", want: "Benzene"},
		{name: "leading comma", input: ",아세톤", want: "아세톤"},
		{name: "unknown substance", input: "미등록화학물질XYZ", want: "미등록화학물질XYZ"},
		{name: "only qualifier", input: "(혼합물)", want: "(혼합물)"},
		{name: "blank", input: "   ", want: ""},
		{name: "first override wins", input: "석영 및 산화아연(분진)", want: "석영"},
		{name: "dust form beats compound family suffix", input: "산화아연(분진) 및 그 화합물", want: "산화아연(분진)"},
		{name: "dust form beats cadmium canonical rule", input: "카드뮴 산화아연(분진)", want: "산화아연(분진)"},
		{name: "spaced letter pair joins", input: "A, B", want: "A,B"},
		{name: "spaced digit locant joins", input: "1 , 1-디클로로", want: "1,1-디클로로"},
		{name: "spaced word list splits", input: "Benzene, Toluene", want: "Benzene"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Extract(tt.input))
		})
	}
}

func TestExtractIsIdempotentOnKeys(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"카드뮴 및 그 화합물",
		"산화아연(분진)",
		"활석(석면불포함)",
		"크롬(6가)화합물(수용성)",
		"1,1-디클로로에탄, 아세톤",
		"N,N-디메틸포름아미드",
		"염화비닐 및 함유물질",
		"THF",
		"바륨및그가용성화합물",
		"톨루엔(Toluene)",
		"산화아연(분진) 및 그 화합물",
		"카드뮴 산화아연(분진)",
	}
	for _, in := range inputs {
		key := Extract(in)
		assert.Equal(t, key, Extract(key), "input %q", in)
	}
}

func TestFirstSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,1-디클로로에탄", firstSegment("1,1-디클로로에탄,아세톤"))
	assert.Equal(t, "N,N-디메틸아세트아미드", firstSegment("N,N-디메틸아세트아미드"))
	assert.Equal(t, "ab", firstSegment("ab,cd"))
	assert.Equal(t, "a", firstSegment(",a"))
	assert.Empty(t, firstSegment(",,"))
}
