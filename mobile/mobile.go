// Package mobile exposes the game server to gomobile-built app shells.
// The bound API sticks to strings and errors so gomobile can bridge it.
package mobile

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/engine"
	"github.com/thichuong/GameCoTuong/internal/server/game"
	httpserver "github.com/thichuong/GameCoTuong/internal/server/http"
	"github.com/thichuong/GameCoTuong/internal/server/ws"
	"github.com/thichuong/GameCoTuong/internal/storage"
)

// StartServer brings up the full server on the loopback interface and
// returns the address it listens on. It serves until the process exits,
// the way an app-embedded server is expected to.
//
// webDir is the physical path to the extracted web assets, archiveDir
// the directory for finished matches ("" disables the archive), and
// port the loopback port to bind ("0" picks a free one).
func StartServer(webDir, archiveDir, port string) (string, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var store *storage.Store
	if archiveDir != "" {
		var err error
		store, err = storage.Open(archiveDir)
		if err != nil {
			return "", err
		}
	}

	manager := game.NewManager(store, log)
	go manager.RunReaper(context.Background())

	api := httpserver.NewHandler(engine.DefaultConfig(), store, log)
	mux := httpserver.NewMux(api, ws.NewHandler(manager, log), webDir)

	// Bind synchronously so the caller sees port clashes; serve in the
	// background to keep the UI thread free.
	ln, err := net.Listen("tcp", "127.0.0.1:"+port)
	if err != nil {
		return "", err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil {
			log.Error().Err(err).Msg("embedded server stopped")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("embedded server listening")
	return ln.Addr().String(), nil
}
