package fusion

// 베이지안 모드 가중치. 텍스트 증거를 가장 무겁게, DB와 대화 맥락을
// 동률로 반영한다.
const (
	bayesTextWeight    = 0.4
	bayesDBWeight      = 0.3
	bayesContextWeight = 0.3
)

// BayesianFuser 가중 평균 융합기
type BayesianFuser struct{}

// Name 융합기 이름
func (f *BayesianFuser) Name() string { return "bayesian" }

// Fuse 가중 평균으로 확률을 융합한다
func (f *BayesianFuser) Fuse(s Signals) Outcome {
	context := (s.TrustRisk + s.TimeRisk) / 2
	p := bayesTextWeight*s.TextProbability +
		bayesDBWeight*s.DBPrior +
		bayesContextWeight*context
	return finalize(p, s.Trust)
}
