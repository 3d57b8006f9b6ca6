package loader

import (
	"gopkg.in/yaml.v3"
)

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct {
	fs FileSystem
}

// NewYAMLLoader creates a YAML loader reading from the OS file system.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{fs: DefaultFS()}
}

// NewYAMLLoaderWithFS creates a YAML loader with a custom file system.
func NewYAMLLoaderWithFS(fs FileSystem) *YAMLLoader {
	return &YAMLLoader{fs: fs}
}

// LoadFrom decodes the YAML file at path onto v.
func (l *YAMLLoader) LoadFrom(path string, v any) (bool, error) {
	data, found, err := readFile(l.fs, path)
	if err != nil || !found {
		return found, err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return true, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return true, nil
}

// Marshal encodes v as YAML.
func (l *YAMLLoader) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
