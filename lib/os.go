package lib

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// HandleInterrupt blocks until SIGINT or SIGTERM, or until ctx is done, then
// calls cancel so that servers and readers can shut down.
func HandleInterrupt(ctx context.Context, cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		log.Warn().Str("signal", sig.String()).Msg("process interrupted")
	case <-ctx.Done():
	}
	cancel()
}
