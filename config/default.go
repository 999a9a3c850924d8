package config

import _ "embed"

// DefaultConfigYAML 内置默认配置，可被外部配置文件或环境变量覆盖
//
//go:embed config.default.yaml
var DefaultConfigYAML []byte
