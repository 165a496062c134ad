package cfg

import (
	"os"

	"github.com/pkg/errors"
)

// Load 读取并解码配置文件，格式由扩展名决定
func Load(path string) (*Node, error) {
	decoder, err := DecoderForFile(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	node, err := decoder.Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "decode config file %s", path)
	}
	return node, nil
}

// DecodeFile 读取配置文件中 key 对应的部分到 object，key 为空时使用整个文件
func DecodeFile(path string, key string, object any) error {
	node, err := Load(path)
	if err != nil {
		return err
	}
	return node.Sub(key).ConvertTo(object)
}
