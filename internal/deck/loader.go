package deck

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the deck catalogue from decks.yaml in configPath (or the
// working directory and ./config when configPath is empty).
func Load(configPath string) (*Catalogue, error) {
	v := viper.New()
	v.SetDefault("defaultDeck", "")

	v.SetConfigName("decks")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read deck config: %w", err)
	}

	var cat Catalogue
	if err := v.Unmarshal(&cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck config: %w", err)
	}

	if cat.DefaultID == "" && len(cat.Decks) == 1 {
		for id := range cat.Decks {
			cat.DefaultID = id
		}
	}
	if err := validate(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}
