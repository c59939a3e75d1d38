package secrets

import (
	"fmt"

	"github.com/joho/godotenv"
)

// FileLoader returns a Loader that reads keys from a dotenv-format file.
// Keys absent from the file, or set to "", are omitted from the result.
func FileLoader(path string, keys ...string) Loader {
	return func() (map[string]string, error) {
		all, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := all[k]; v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// Static returns a Loader that always yields a copy of values.
func Static(values map[string]string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(values))
		for k, v := range values {
			if v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
