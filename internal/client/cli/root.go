package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if a.store == nil {
		return ""
	}
	sess := a.store.Session()
	if !sess.IsAuthenticated {
		return ""
	}
	return fmt.Sprintf("(%s) ", sess.User.Email)
}

// Root runs the REPL on stdin until exit or EOF.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to SalonMate CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
