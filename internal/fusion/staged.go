package fusion

// 단계별 모드 가중치. DB 증거를 텍스트와 동급으로 끌어올리고 대화
// 맥락은 보조 신호로만 쓴다.
const (
	stagedTextWeight    = 0.4
	stagedDBWeight      = 0.4
	stagedContextWeight = 0.2
)

// StagedFuser 단계별 융합기 (기본 모드)
type StagedFuser struct{}

// Name 융합기 이름
func (f *StagedFuser) Name() string { return "staged" }

// Fuse 단계별 가중치로 확률을 융합한다
func (f *StagedFuser) Fuse(s Signals) Outcome {
	context := (s.TrustRisk + s.TimeRisk) / 2
	p := stagedTextWeight*s.TextProbability +
		stagedDBWeight*s.DBPrior +
		stagedContextWeight*context
	return finalize(p, s.Trust)
}
