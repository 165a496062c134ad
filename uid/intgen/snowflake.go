package intgen

import (
	"net"
	"time"
)

const (
	machineIDBits  = 10
	maxMachineID   = (1 << machineIDBits) - 1
	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

type SnowflakeOptions struct {
	// 机器 ID，未配置时取本机 IPv4 地址低两字节
	MachineID *int64 `cfg:"machineID" validate:"omitempty,min=0,max=1023"`
	// 起始纪元
	Epoch time.Time `cfg:"epoch" def:"2020-01-01T00:00:00Z"`
}

// SnowflakeGenerator 1 位符号 + 41 位毫秒时间戳 + 10 位机器 ID + 12 位序列号
type SnowflakeGenerator struct {
	clock     *clock
	machineID int64
}

func NewSnowflakeGeneratorWithOptions(options *SnowflakeOptions) *SnowflakeGenerator {
	machineID := machineIDFromIP()
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if options != nil {
		if options.MachineID != nil {
			machineID = *options.MachineID
		}
		if !options.Epoch.IsZero() {
			epoch = options.Epoch
		}
	}

	return &SnowflakeGenerator{
		clock:     newClock(epoch.UnixMilli()),
		machineID: machineID & maxMachineID,
	}
}

func machineIDFromIP() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipv4 := ipnet.IP.To4(); ipv4 != nil {
				return int64(ipv4[2])<<8 | int64(ipv4[3])
			}
		}
	}
	return 0
}

func (g *SnowflakeGenerator) Generate() int64 {
	timestamp, sequence := g.clock.next()
	return timestamp<<timestampShift | g.machineID<<machineIDShift | sequence
}

// MachineID 生成器使用的机器 ID
func (g *SnowflakeGenerator) MachineID() int64 {
	return g.machineID
}
