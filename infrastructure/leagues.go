package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"wordbearer/domain"
)

// LoadLeagueConfigs reads every *.json file directly under dir, in file
// name order. Any invalid file fails the whole load.
func LoadLeagueConfigs(dir string) ([]domain.LeagueConfig, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	configs := make([]domain.LeagueConfig, 0, len(paths))
	seen := map[string]string{}
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read league config: %w", err)
		}
		var cfg domain.LeagueConfig
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", filepath.Base(path), domain.ErrInvalidLeague, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[cfg.LeagueName]; ok {
			return nil, fmt.Errorf("%s: %w: league %q already defined in %s",
				filepath.Base(path), domain.ErrInvalidLeague, cfg.LeagueName, prev)
		}
		seen[cfg.LeagueName] = filepath.Base(path)
		configs = append(configs, cfg)
	}
	return configs, nil
}
