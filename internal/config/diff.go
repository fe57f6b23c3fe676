package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider and
// server changes require a restart.
type ConfigDiff struct {
	// PracticeChanged is true if any judging knob changed.
	PracticeChanged bool
	NewPractice     PracticeConfig

	// PacksChanged is true if the word-pack list changed.
	PacksChanged bool
	NewPacks     []string

	LogLevelChanged bool
	NewLogLevel     LogLevel
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Practice != new.Practice {
		d.PracticeChanged = true
		d.NewPractice = new.Practice
	}

	if !slices.Equal(old.Vocab.Packs, new.Vocab.Packs) {
		d.PacksChanged = true
		d.NewPacks = slices.Clone(new.Vocab.Packs)
	}

	return d
}
