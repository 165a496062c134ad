package intgen

// TimestampSeqGenerator 高 52 位毫秒时间戳，低 12 位序列号
type TimestampSeqGenerator struct {
	clock *clock
}

func NewTimestampSeqGenerator() *TimestampSeqGenerator {
	return &TimestampSeqGenerator{clock: newClock(0)}
}

func (g *TimestampSeqGenerator) Generate() int64 {
	timestamp, sequence := g.clock.next()
	return timestamp<<sequenceBits | sequence
}
