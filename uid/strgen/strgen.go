package strgen

import (
	"github.com/pkg/errors"
	"github.com/viablespark/persist/cfg"
	"github.com/viablespark/persist/ref"
)

func init() {
	ref.MustRegisterT[UUIDGenerator](NewUUIDGeneratorWithOptions)
}

// StrGenerator 生成字符串主键，实现必须并发安全
type StrGenerator interface {
	Generate() string
}

// NewStrGeneratorWithOptions 按配置创建字符串生成器，Namespace 为空时使用本包
func NewStrGeneratorWithOptions(options *ref.TypeOptions) (StrGenerator, error) {
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
	g, ok := generator.(StrGenerator)
	if !ok {
		return nil, errors.Errorf("%T is not a StrGenerator", generator)
	}
	return g, nil
}

const Namespace = "github.com/viablespark/persist/uid/strgen"
