package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog"

	"github.com/hailam/qchess/internal/game"
	"github.com/hailam/qchess/internal/protocol"
	"github.com/hailam/qchess/internal/storage"
)

var (
	seed        = flag.Uint64("seed", 0, "oracle seed (0 picks one from the clock)")
	fen         = flag.String("fen", "", "starting position")
	stateVector = flag.Bool("statevector", false, "measure with the state-vector oracle")
	noStats     = flag.Bool("nostats", false, "do not record finished games")
	debug       = flag.Bool("debug", false, "log splits and collapses to stderr")
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	level := zerolog.WarnLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	var st *storage.Storage
	if !*noStats {
		var err error
		if st, err = storage.NewStorage(); err != nil {
			log.Printf("Warning: Failed to initialize storage: %v", err)
		} else {
			defer st.Close()
		}
	}

	session, err := protocol.New(protocol.Config{
		In:  os.Stdin,
		Out: os.Stdout,
		Game: game.Config{
			FEN:         *fen,
			Seed:        *seed,
			StateVector: *stateVector,
		},
		Storage: st,
		Logger:  &logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := session.Run(); err != nil {
		log.Fatal(err)
	}
}
