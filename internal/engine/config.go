package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// Config holds every tunable engine parameter: piece values used for
// move ordering, evaluation weights, search-heuristic scores, pruning
// thresholds, and the transposition table size. The zero value is not
// usable; start from DefaultConfig or LoadConfig.
type Config struct {
	ValSoldier  int
	ValAdvisor  int
	ValElephant int
	ValHorse    int
	ValCannon   int
	ValRook     int
	ValGeneral  int

	ScoreHashMove    int
	ScoreCaptureBase int
	ScoreKillerMove  int
	ScoreHistoryMax  int

	// PruningMethod selects how quiet moves are cut late in the move
	// list: 0 move-count limiting, 1 late-move reductions, 2 both.
	PruningMethod     int
	PruningMultiplier float64

	ProbcutDepth     int
	ProbcutMargin    int
	ProbcutReduction int

	SingularMinDepth int
	SingularMargin   int

	MateScore int

	TTSizeMB int

	DefenderBonus          int
	MobilityRook           int
	MobilityCannon         int
	MobilityHorse          int
	MobilitySoldier        int
	MobilityCap            int
	StructureBonus         int
	KingEscapePenalty      int
	CannonExposureOpen     int
	CannonExposureScreened int
}

// DefaultConfig returns the built-in tuning.
func DefaultConfig() Config {
	return Config{
		ValSoldier:  xiangqi.ValSoldier,
		ValAdvisor:  xiangqi.ValAdvisor,
		ValElephant: xiangqi.ValElephant,
		ValHorse:    xiangqi.ValHorse,
		ValCannon:   xiangqi.ValCannon,
		ValRook:     xiangqi.ValRook,
		ValGeneral:  xiangqi.ValGeneral,

		ScoreHashMove:    200_000,
		ScoreCaptureBase: 200_000,
		ScoreKillerMove:  120_000,
		ScoreHistoryMax:  80_000,

		PruningMethod:     1,
		PruningMultiplier: 1.0,

		ProbcutDepth:     5,
		ProbcutMargin:    200,
		ProbcutReduction: 4,

		SingularMinDepth: 8,
		SingularMargin:   20,

		MateScore: 300_000,

		TTSizeMB: 256,

		DefenderBonus:          40,
		MobilityRook:           10,
		MobilityCannon:         10,
		MobilityHorse:          5,
		MobilitySoldier:        2,
		MobilityCap:            12,
		StructureBonus:         15,
		KingEscapePenalty:      8,
		CannonExposureOpen:     30,
		CannonExposureScreened: 12,
	}
}

// PieceValue returns the configured value of a piece type.
func (c *Config) PieceValue(pt xiangqi.PieceType) int {
	switch pt {
	case xiangqi.PieceGeneral:
		return c.ValGeneral
	case xiangqi.PieceAdvisor:
		return c.ValAdvisor
	case xiangqi.PieceElephant:
		return c.ValElephant
	case xiangqi.PieceHorse:
		return c.ValHorse
	case xiangqi.PieceRook:
		return c.ValRook
	case xiangqi.PieceCannon:
		return c.ValCannon
	case xiangqi.PieceSoldier:
		return c.ValSoldier
	}
	return 0
}

// configJSON mirrors the wire format. Piece values and the score_*
// ordering weights are multipliers applied to the defaults, so a tuning
// file can say "pawns are worth 1.5x" without knowing the base scale.
// Everything else is an absolute value. Absent fields keep the default;
// unknown fields are ignored.
type configJSON struct {
	ValPawn     *float64 `json:"val_pawn"`
	ValAdvisor  *float64 `json:"val_advisor"`
	ValElephant *float64 `json:"val_elephant"`
	ValHorse    *float64 `json:"val_horse"`
	ValCannon   *float64 `json:"val_cannon"`
	ValRook     *float64 `json:"val_rook"`
	ValKing     *float64 `json:"val_king"`

	ScoreHashMove    *float64 `json:"score_hash_move"`
	ScoreCaptureBase *float64 `json:"score_capture_base"`
	ScoreKillerMove  *float64 `json:"score_killer_move"`
	ScoreHistoryMax  *float64 `json:"score_history_max"`

	PruningMethod     *int     `json:"pruning_method"`
	PruningMultiplier *float64 `json:"pruning_multiplier"`

	ProbcutDepth     *int `json:"probcut_depth"`
	ProbcutMargin    *int `json:"probcut_margin"`
	ProbcutReduction *int `json:"probcut_reduction"`

	SingularMinDepth *int `json:"singular_extension_min_depth"`
	SingularMargin   *int `json:"singular_extension_margin"`

	MateScore *int `json:"mate_score"`

	TTSizeMB *int `json:"tt_size_mb"`

	DefenderBonus          *int `json:"defender_bonus"`
	MobilityRook           *int `json:"mobility_rook"`
	MobilityCannon         *int `json:"mobility_cannon"`
	MobilityHorse          *int `json:"mobility_horse"`
	MobilitySoldier        *int `json:"mobility_soldier"`
	MobilityCap            *int `json:"mobility_cap"`
	StructureBonus         *int `json:"structure_bonus"`
	KingEscapePenalty      *int `json:"king_escape_penalty"`
	CannonExposureOpen     *int `json:"cannon_exposure_open"`
	CannonExposureScreened *int `json:"cannon_exposure_screened"`
}

// LoadConfig parses a JSON tuning document on top of the defaults.
// Malformed JSON is the only error; a valid document never fails.
func LoadConfig(data []byte) (Config, error) {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse engine config: %w", err)
	}

	cfg := DefaultConfig()

	cfg.ValSoldier = scaled(cfg.ValSoldier, raw.ValPawn)
	cfg.ValAdvisor = scaled(cfg.ValAdvisor, raw.ValAdvisor)
	cfg.ValElephant = scaled(cfg.ValElephant, raw.ValElephant)
	cfg.ValHorse = scaled(cfg.ValHorse, raw.ValHorse)
	cfg.ValCannon = scaled(cfg.ValCannon, raw.ValCannon)
	cfg.ValRook = scaled(cfg.ValRook, raw.ValRook)
	cfg.ValGeneral = scaled(cfg.ValGeneral, raw.ValKing)

	cfg.ScoreHashMove = scaled(cfg.ScoreHashMove, raw.ScoreHashMove)
	cfg.ScoreCaptureBase = scaled(cfg.ScoreCaptureBase, raw.ScoreCaptureBase)
	cfg.ScoreKillerMove = scaled(cfg.ScoreKillerMove, raw.ScoreKillerMove)
	cfg.ScoreHistoryMax = scaled(cfg.ScoreHistoryMax, raw.ScoreHistoryMax)

	cfg.PruningMethod = pick(cfg.PruningMethod, raw.PruningMethod)
	if raw.PruningMultiplier != nil {
		cfg.PruningMultiplier = *raw.PruningMultiplier
	}

	cfg.ProbcutDepth = pick(cfg.ProbcutDepth, raw.ProbcutDepth)
	cfg.ProbcutMargin = pick(cfg.ProbcutMargin, raw.ProbcutMargin)
	cfg.ProbcutReduction = pick(cfg.ProbcutReduction, raw.ProbcutReduction)

	cfg.SingularMinDepth = pick(cfg.SingularMinDepth, raw.SingularMinDepth)
	cfg.SingularMargin = pick(cfg.SingularMargin, raw.SingularMargin)

	cfg.MateScore = pick(cfg.MateScore, raw.MateScore)

	cfg.TTSizeMB = pick(cfg.TTSizeMB, raw.TTSizeMB)

	cfg.DefenderBonus = pick(cfg.DefenderBonus, raw.DefenderBonus)
	cfg.MobilityRook = pick(cfg.MobilityRook, raw.MobilityRook)
	cfg.MobilityCannon = pick(cfg.MobilityCannon, raw.MobilityCannon)
	cfg.MobilityHorse = pick(cfg.MobilityHorse, raw.MobilityHorse)
	cfg.MobilitySoldier = pick(cfg.MobilitySoldier, raw.MobilitySoldier)
	cfg.MobilityCap = pick(cfg.MobilityCap, raw.MobilityCap)
	cfg.StructureBonus = pick(cfg.StructureBonus, raw.StructureBonus)
	cfg.KingEscapePenalty = pick(cfg.KingEscapePenalty, raw.KingEscapePenalty)
	cfg.CannonExposureOpen = pick(cfg.CannonExposureOpen, raw.CannonExposureOpen)
	cfg.CannonExposureScreened = pick(cfg.CannonExposureScreened, raw.CannonExposureScreened)

	return cfg, nil
}

// LoadConfigFile reads and parses a tuning file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read engine config: %w", err)
	}
	return LoadConfig(data)
}

func scaled(def int, mult *float64) int {
	if mult == nil {
		return def
	}
	return int(float64(def) * *mult)
}

func pick(def int, v *int) int {
	if v == nil {
		return def
	}
	return *v
}
