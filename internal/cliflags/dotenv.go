package cliflags

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadEnvFile parses a simple KEY=VALUE dotenv file into a map suitable
// for config.Load's overrides parameter. Blank lines and lines starting
// with # are skipped; surrounding quotes on the value are stripped.
func LoadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cliflags: reading env file %s: %w", path, err)
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("cliflags: %s:%d: expected KEY=VALUE, got %q", path, lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		out[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cliflags: scanning env file %s: %w", path, err)
	}
	return out, nil
}
