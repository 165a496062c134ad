package intgen

import "sync/atomic"

type SequenceOptions struct {
	Start int64 `cfg:"start" def:"1"`
}

// SequenceGenerator 进程内单调递增序列，适用于测试和单实例部署
type SequenceGenerator struct {
	next atomic.Int64
}

func NewSequenceGeneratorWithOptions(options *SequenceOptions) *SequenceGenerator {
	g := &SequenceGenerator{}
	start := int64(1)
	if options != nil && options.Start != 0 {
		start = options.Start
	}
	g.next.Store(start)
	return g
}

func (g *SequenceGenerator) Generate() int64 {
	return g.next.Add(1) - 1
}
