package config

import (
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Practice: PracticeConfig{
			AcceptThreshold: 0.6,
			MaxAttempts:     3,
			MatchMode:       MatchEditDistance,
			ListenWindow:    6 * time.Second,
			Language:        "en-US",
		},
		Vocab: VocabConfig{
			Packs: []string{"packs/animals.yaml"},
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	old := baseConfig()
	new := baseConfig()

	d := Diff(old, new)
	if d.PracticeChanged || d.PacksChanged || d.LogLevelChanged {
		t.Errorf("diff reports changes for identical configs: %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = LogDebug

	d := Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged = false, want true")
	}
	if d.NewLogLevel != LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
}

func TestDiff_Practice(t *testing.T) {
	old := baseConfig()
	new := baseConfig()
	new.Practice.MaxAttempts = 5

	d := Diff(old, new)
	if !d.PracticeChanged {
		t.Fatal("PracticeChanged = false, want true")
	}
	if d.NewPractice.MaxAttempts != 5 {
		t.Errorf("NewPractice.MaxAttempts = %d, want 5", d.NewPractice.MaxAttempts)
	}
}

func TestDiff_MatchModeCounts(t *testing.T) {
	old := baseConfig()
	new := baseConfig()
	new.Practice.MatchMode = MatchContainment

	d := Diff(old, new)
	if !d.PracticeChanged {
		t.Fatal("PracticeChanged = false, want true")
	}
}

func TestDiff_Packs(t *testing.T) {
	old := baseConfig()
	new := baseConfig()
	new.Vocab.Packs = append(new.Vocab.Packs, "packs/space.yaml")

	d := Diff(old, new)
	if !d.PacksChanged {
		t.Fatal("PacksChanged = false, want true")
	}
	if len(d.NewPacks) != 2 {
		t.Errorf("NewPacks = %v, want 2 entries", d.NewPacks)
	}
}

func TestDiff_ServerAddrIsNotHotReloadable(t *testing.T) {
	old := baseConfig()
	new := baseConfig()
	new.Server.ListenAddr = ":9090"

	d := Diff(old, new)
	if d.PracticeChanged || d.PacksChanged || d.LogLevelChanged {
		t.Errorf("listen_addr change should not be tracked: %+v", d)
	}
}
