package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-gs1/fm"
)

// ParseKeys parses a comma separated list of keys in [fm.MinKey, fm.MaxKey].
func ParseKeys(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	keys := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q", p)
		}
		if k < fm.MinKey || k > fm.MaxKey {
			return nil, fmt.Errorf("key %d out of range %d..%d", k, fm.MinKey, fm.MaxKey)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys in %q", s)
	}
	return keys, nil
}
