package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/engine"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

func main() {
	fen := flag.String("fen", xiangqi.StartFEN, `position to analyze, "-" reads one line from stdin`)
	depth := flag.Int("depth", 8, "search depth")
	moveTime := flag.Duration("movetime", 0, "time budget, overrides depth when set")
	configPath := flag.String("engine-config", "", "JSON tuning file for the engine")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if *fen == "-" {
		sc := bufio.NewScanner(os.Stdin)
		if !sc.Scan() {
			log.Fatal().Msg("no position on stdin")
		}
		*fen = strings.TrimSpace(sc.Text())
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = engine.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("engine config")
		}
	}

	gs, err := xiangqi.NewGameStateFromFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Msg("bad position")
	}

	fmt.Println(gs.Board)
	fmt.Printf("fen:    %s\n", gs.FEN())
	fmt.Printf("turn:   %v\n", gs.Turn)
	if gs.Board.IsInCheck(gs.Turn) {
		fmt.Println("check:  yes")
	}

	var list xiangqi.MoveList
	gs.Board.GenerateLegalMoves(gs.Turn, &list)
	fmt.Printf("moves:  %d legal\n", list.Len())

	eval := engine.NewEvaluator(&cfg)
	fmt.Printf("static: %d\n", eval.Evaluate(gs.Board, gs.Turn))

	if gs.Status.Terminal() {
		fmt.Printf("status: %s\n", gs.Status)
		return
	}

	limit := engine.LimitDepth(*depth)
	if *moveTime > 0 {
		limit = engine.LimitTime(*moveTime)
	}

	e := engine.NewEngine(cfg)
	mv, stats, ok := e.Search(gs, limit, nil)
	if !ok {
		fmt.Println("best:   none, every move repeats")
		return
	}

	nps := int64(0)
	if stats.Elapsed > 0 {
		nps = int64(float64(stats.Nodes) / stats.Elapsed.Seconds())
	}
	fmt.Printf("best:   %v\n", mv)
	fmt.Printf("score:  %d\n", stats.Score)
	fmt.Printf("search: depth %d, %d nodes in %v, %d nps\n",
		stats.Depth, stats.Nodes, stats.Elapsed.Round(time.Millisecond), nps)
}
