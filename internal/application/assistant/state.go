package assistant

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"time"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/port"
)

// Stage 编排状态
type Stage string

const (
	StageBuilding    Stage = "building"
	StageDispatching Stage = "dispatching"
	StageValidating  Stage = "validating"
	StageRetrying    Stage = "retrying"
	StageRecording   Stage = "recording"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// RetryState 单次调用内的题目补充状态，调用结束即丢弃
type RetryState struct {
	// Rounds 出题请求轮数（首轮 + 补充）
	Rounds int
	// StopErr 补充循环因错误提前结束时的原因
	StopErr  error
	Accepted []entity.Question
	Rejected int

	seen map[string]struct{}
}

func newRetryState() *RetryState {
	return &RetryState{seen: make(map[string]struct{})}
}

// Merge 按归一化题干去重后追加，最多追加 limit 道，返回实际追加数
func (s *RetryState) Merge(qs []entity.Question, limit int) int {
	added := 0
	for i := range qs {
		if added >= limit {
			break
		}
		key := qs[i].NormalizedText()
		if _, ok := s.seen[key]; ok {
			s.Rejected++
			continue
		}
		s.seen[key] = struct{}{}
		s.Accepted = append(s.Accepted, qs[i])
		added++
	}
	return added
}

// AcceptedTexts 已接受题目的题干
func (s *RetryState) AcceptedTexts() []string {
	out := make([]string, 0, len(s.Accepted))
	for _, q := range s.Accepted {
		out = append(out, q.QuestionText)
	}
	return out
}

// call 一次编排调用的累计账目，终态时转为 InteractionRecord
type call struct {
	kind        model.TaskKind
	stage       Stage
	inputDigest string
	outputs     hash.Hash
	received    bool

	dispatches      int
	attempts        int
	tokens          int
	tokensEstimated bool
	latency         time.Duration
}

func newCall(kind model.TaskKind, promptText string) *call {
	sum := sha256.Sum256([]byte(promptText))
	return &call{
		kind:        kind,
		stage:       StageBuilding,
		inputDigest: hex.EncodeToString(sum[:]),
		outputs:     sha256.New(),
	}
}

// observe 累计一次 Send 的耗时与用量
func (c *call) observe(elapsed time.Duration, res *port.InferenceResult, err error) {
	c.dispatches++
	c.latency += elapsed
	if res != nil {
		c.attempts += max(res.Attempts, 1)
		c.tokens += res.TotalTokens
		c.tokensEstimated = c.tokensEstimated || res.TokensEstimated
		c.outputs.Write([]byte(res.Text))
		c.received = true
		return
	}
	if ie, ok := port.AsInferenceError(err); ok {
		c.attempts += ie.Attempts
	} else {
		c.attempts++
	}
}

func (c *call) outputDigest() string {
	if !c.received {
		return ""
	}
	return hex.EncodeToString(c.outputs.Sum(nil))
}
