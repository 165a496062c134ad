package intgen

import (
	"sync/atomic"
	"time"
)

const (
	sequenceBits = 12
	maxSequence  = (1 << sequenceBits) - 1
)

// clock 毫秒时间戳 + 12 位序列号的原子状态，同一毫秒内序列号用尽时等待下一毫秒
type clock struct {
	state int64
	epoch int64
}

func newClock(epoch int64) *clock {
	return &clock{
		state: (time.Now().UnixMilli() - epoch) << sequenceBits,
		epoch: epoch,
	}
}

func (c *clock) next() (timestamp int64, sequence int64) {
	for {
		old := atomic.LoadInt64(&c.state)
		oldTimestamp := old >> sequenceBits
		oldSequence := old & maxSequence

		now := time.Now().UnixMilli() - c.epoch
		timestamp, sequence = now, 0
		if now <= oldTimestamp {
			// 时钟回拨时沿用旧时间戳
			timestamp = oldTimestamp
			sequence = (oldSequence + 1) & maxSequence
			if sequence == 0 {
				for now <= oldTimestamp {
					time.Sleep(100 * time.Microsecond)
					now = time.Now().UnixMilli() - c.epoch
				}
				timestamp = now
			}
		}

		if atomic.CompareAndSwapInt64(&c.state, old, timestamp<<sequenceBits|sequence) {
			return timestamp, sequence
		}
	}
}
