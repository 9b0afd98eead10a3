package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/engine"
	"github.com/thichuong/GameCoTuong/internal/protocol"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

type player struct {
	name  string
	limit engine.SearchLimit
}

func main() {
	depth := flag.Int("depth", 4, "search depth for player A")
	depthB := flag.Int("depth-b", 0, "search depth for player B, 0 plays A against itself")
	moveTime := flag.Duration("movetime", 0, "per-move time budget for player A, overrides depth")
	maxMoves := flag.Int("maxmoves", 200, "plies per game before calling it a draw")
	games := flag.Int("games", 1, "games to play, colors alternate")
	configPath := flag.String("engine-config", "", "JSON tuning file for the engine")
	pprofAddr := flag.String("pprof", "localhost:6060", "pprof listen address, empty disables")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if *pprofAddr != "" {
		go func() {
			log.Info().Str("addr", *pprofAddr).Msg("pprof listening")
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				log.Warn().Err(err).Msg("pprof failed")
			}
		}()
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = engine.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("engine config")
		}
	}

	playerA := player{name: fmt.Sprintf("depth %d", *depth), limit: engine.LimitDepth(*depth)}
	if *moveTime > 0 {
		playerA = player{name: fmt.Sprintf("movetime %v", *moveTime), limit: engine.LimitTime(*moveTime)}
	}
	playerB := playerA
	if *depthB > 0 {
		playerB = player{name: fmt.Sprintf("depth %d", *depthB), limit: engine.LimitDepth(*depthB)}
	}

	e := engine.NewEngine(cfg)

	winsA, winsB, draws := 0, 0, 0
	for g := 0; g < *games; g++ {
		red, black := playerA, playerB
		if g%2 == 1 {
			red, black = playerB, playerA
		}
		log.Info().Int("game", g+1).Str("red", red.name).Str("black", black.name).Msg("game start")

		winner, reason := playGame(e, red, black, *maxMoves, log)
		switch {
		case winner == xiangqi.Red && g%2 == 0, winner == xiangqi.Black && g%2 == 1:
			winsA++
		case winner == xiangqi.Red || winner == xiangqi.Black:
			winsB++
		default:
			draws++
		}
		log.Info().Int("game", g+1).
			Str("winner", protocol.SideName(winner)).
			Str("reason", reason).
			Msg("game over")
	}

	if *games > 1 || playerA.name != playerB.name {
		fmt.Printf("\n%s %d, %s %d, draws %d\n", playerA.name, winsA, playerB.name, winsB, draws)
	}
}

func playGame(e *engine.Engine, red, black player, maxMoves int, log zerolog.Logger) (xiangqi.Side, string) {
	gs := xiangqi.NewGameState()

	for ply := 1; ply <= maxMoves; ply++ {
		limit := red.limit
		if gs.Turn == xiangqi.Black {
			limit = black.limit
		}

		mv, stats, ok := e.Search(gs, limit, nil)
		if !ok {
			// Every remaining root move runs into the repetition cap.
			return xiangqi.NoSide, "repetition"
		}

		nps := int64(0)
		if stats.Elapsed > 0 {
			nps = int64(float64(stats.Nodes) / stats.Elapsed.Seconds())
		}
		fmt.Printf("%3d. %-5s %v  score %6d  depth %2d  nodes %9d  time %9s  nps %8d\n",
			ply, gs.Turn, mv, stats.Score, stats.Depth, stats.Nodes,
			stats.Elapsed.Round(time.Millisecond), nps)

		if err := gs.MakeMove(mv.From, mv.To); err != nil {
			log.Error().Err(err).Stringer("move", mv).Msg("engine produced an unplayable move")
			return xiangqi.NoSide, "error"
		}
		if gs.Status.Terminal() {
			return gs.Winner, gs.Status.String()
		}
	}
	return xiangqi.NoSide, "move limit"
}
