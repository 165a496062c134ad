package cfg

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Decoder 将配置文件内容解码为 Node
type Decoder interface {
	Decode(data []byte) (*Node, error)
}

type YamlDecoder struct{}

func (YamlDecoder) Decode(data []byte) (*Node, error) {
	var result any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode YAML")
	}
	return NewNode(result), nil
}

type JsonDecoder struct{}

func (JsonDecoder) Decode(data []byte) (*Node, error) {
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON")
	}
	return NewNode(result), nil
}

type TomlDecoder struct{}

func (TomlDecoder) Decode(data []byte) (*Node, error) {
	var result map[string]any
	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML")
	}
	return NewNode(result), nil
}

// IniDecoder 顶层键放在根节点，section 作为子节点
type IniDecoder struct{}

func (IniDecoder) Decode(data []byte) (*Node, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode INI")
	}

	result := map[string]any{}
	for _, section := range file.Sections() {
		values := result
		if section.Name() != ini.DefaultSection {
			values = map[string]any{}
			result[section.Name()] = values
		}
		for _, key := range section.Keys() {
			values[key.Name()] = parseIniValue(key.String())
		}
	}
	return NewNode(result), nil
}

func parseIniValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// DecoderForFile 按扩展名选择解码器
func DecoderForFile(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YamlDecoder{}, nil
	case ".json":
		return JsonDecoder{}, nil
	case ".toml":
		return TomlDecoder{}, nil
	case ".ini":
		return IniDecoder{}, nil
	}
	return nil, errors.Errorf("unsupported config file extension %q", filepath.Ext(path))
}
