// Command prismd runs the prism mirror daemon in the foreground, for use
// under a process supervisor. `prism start` launches the same runtime
// through the CLI binary instead.
package main

import (
	"context"
	"errors"
	"log"

	"prism/internal/config"
	"prism/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := daemonrun.Run(context.Background(), cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("prismd: %v", err)
	}
}
