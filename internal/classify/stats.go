package classify

import (
	"sync/atomic"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Stats counts classifications. Safe for concurrent use.
type Stats struct {
	total   atomic.Int64
	ai      atomic.Int64
	keyword atomic.Int64
	failed  atomic.Int64
	confSum atomic.Int64
}

func (s *Stats) record(c model.Classification) {
	s.total.Add(1)
	switch c.Method {
	case model.MethodAI:
		s.ai.Add(1)
	case model.MethodKeyword, model.MethodDefault:
		s.keyword.Add(1)
	default:
		s.failed.Add(1)
		return
	}
	s.confSum.Add(int64(c.Confidence))
}

// Snapshot returns the current counts. Average confidence covers
// successful classifications only.
func (s *Stats) Snapshot() model.ClassifierStats {
	out := model.ClassifierStats{
		Total:   s.total.Load(),
		AI:      s.ai.Load(),
		Keyword: s.keyword.Load(),
		Failed:  s.failed.Load(),
	}
	if ok := out.AI + out.Keyword; ok > 0 {
		out.AverageConfidence = float64(s.confSum.Load()) / float64(ok)
	}
	return out
}
