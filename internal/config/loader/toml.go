package loader

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct {
	fs FileSystem
}

// NewTOMLLoader creates a TOML loader reading from the OS file system.
func NewTOMLLoader() *TOMLLoader {
	return &TOMLLoader{fs: DefaultFS()}
}

// NewTOMLLoaderWithFS creates a TOML loader with a custom file system.
func NewTOMLLoaderWithFS(fs FileSystem) *TOMLLoader {
	return &TOMLLoader{fs: fs}
}

// LoadFrom decodes the TOML file at path onto v.
func (l *TOMLLoader) LoadFrom(path string, v any) (bool, error) {
	data, found, err := readFile(l.fs, path)
	if err != nil || !found {
		return found, err
	}
	return true, l.parse(path, data, v)
}

func (l *TOMLLoader) parse(source string, data []byte, v any) error {
	if err := toml.Unmarshal(data, v); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

// Marshal encodes v as TOML.
func (l *TOMLLoader) Marshal(v any) ([]byte, error) {
	return toml.Marshal(v)
}
