package ipcserver

import (
	"encoding/json"
	"os"

	"github.com/acta-run/acta-core/pkg/types"
)

// LoadHardBlockConfig reads the process-wide hard-block policy (three
// disjoint non-overridable deny allowlists) from path, tolerant
// of a missing file (an empty policy blocks nothing beyond what each
// profile's trust config already restricts).
func LoadHardBlockConfig(path string) (types.HardBlockConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.HardBlockConfig{}, nil
		}
		return types.HardBlockConfig{}, err
	}
	var cfg types.HardBlockConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return types.HardBlockConfig{}, err
	}
	return cfg, nil
}
