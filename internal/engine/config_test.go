package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ValSoldier != 100 || cfg.ValRook != 900 || cfg.ValGeneral != 10000 {
		t.Fatalf("piece values: soldier=%d rook=%d general=%d", cfg.ValSoldier, cfg.ValRook, cfg.ValGeneral)
	}
	if cfg.ScoreHashMove != 200_000 || cfg.ScoreKillerMove != 120_000 {
		t.Fatalf("ordering scores: hash=%d killer=%d", cfg.ScoreHashMove, cfg.ScoreKillerMove)
	}
	if cfg.MateScore != 300_000 {
		t.Fatalf("mate score: got=%d want=300000", cfg.MateScore)
	}
	if cfg.TTSizeMB != 256 {
		t.Fatalf("tt size: got=%d want=256", cfg.TTSizeMB)
	}
	if cfg.PruningMethod != 1 {
		t.Fatalf("pruning method: got=%d want=1", cfg.PruningMethod)
	}
}

func TestLoadConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("empty document changed config:\ngot=%+v\nwant=%+v", cfg, DefaultConfig())
	}
}

func TestLoadConfigScalesValues(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"val_pawn": 1.5, "val_rook": 2.0, "score_killer_move": 0.5}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ValSoldier != 150 {
		t.Fatalf("soldier: got=%d want=150", cfg.ValSoldier)
	}
	if cfg.ValRook != 1800 {
		t.Fatalf("rook: got=%d want=1800", cfg.ValRook)
	}
	if cfg.ScoreKillerMove != 60_000 {
		t.Fatalf("killer score: got=%d want=60000", cfg.ScoreKillerMove)
	}
	if cfg.ValHorse != DefaultConfig().ValHorse {
		t.Fatalf("untouched field changed: horse=%d", cfg.ValHorse)
	}
}

func TestLoadConfigAbsoluteFields(t *testing.T) {
	doc := `{
		"mate_score": 250000,
		"tt_size_mb": 64,
		"pruning_method": 2,
		"pruning_multiplier": 2.5,
		"singular_extension_margin": 35
	}`
	cfg, err := LoadConfig([]byte(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MateScore != 250_000 {
		t.Fatalf("mate score: got=%d want=250000", cfg.MateScore)
	}
	if cfg.TTSizeMB != 64 {
		t.Fatalf("tt size: got=%d want=64", cfg.TTSizeMB)
	}
	if cfg.PruningMethod != 2 {
		t.Fatalf("pruning method: got=%d want=2", cfg.PruningMethod)
	}
	if cfg.PruningMultiplier != 2.5 {
		t.Fatalf("pruning multiplier: got=%v want=2.5", cfg.PruningMultiplier)
	}
	if cfg.SingularMargin != 35 {
		t.Fatalf("singular margin: got=%d want=35", cfg.SingularMargin)
	}
}

func TestLoadConfigIgnoresUnknownFields(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"no_such_knob": true, "another": [1, 2]}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("unknown fields changed config: %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"val_pawn": `)); err == nil {
		t.Fatalf("truncated document accepted")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")
	if err := os.WriteFile(path, []byte(`{"tt_size_mb": 8}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.TTSizeMB != 8 {
		t.Fatalf("tt size: got=%d want=8", cfg.TTSizeMB)
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
