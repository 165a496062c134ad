package intgen

import (
	"github.com/pkg/errors"
	"github.com/viablespark/persist/cfg"
	"github.com/viablespark/persist/ref"
)

func init() {
	ref.MustRegisterT[TimestampSeqGenerator](NewTimestampSeqGenerator)
	ref.MustRegisterT[SnowflakeGenerator](NewSnowflakeGeneratorWithOptions)
	ref.MustRegisterT[SequenceGenerator](NewSequenceGeneratorWithOptions)
	ref.MustRegisterT[RedisGenerator](NewRedisGeneratorWithOptions)
}

// IntGenerator 生成 64 位整数主键，实现必须并发安全
type IntGenerator interface {
	Generate() int64
}

// NewIntGeneratorWithOptions 按配置创建整数生成器，Namespace 为空时使用本包
func NewIntGeneratorWithOptions(options *ref.TypeOptions) (IntGenerator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	namespace := options.Namespace
	if namespace == "" {
		namespace = Namespace
	}
	generator, err := ref.New(namespace, options.Type, cfg.NewNode(options.Options))
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	g, ok := generator.(IntGenerator)
	if !ok {
		return nil, errors.Errorf("%T is not an IntGenerator", generator)
	}
	return g, nil
}

const Namespace = "github.com/viablespark/persist/uid/intgen"
