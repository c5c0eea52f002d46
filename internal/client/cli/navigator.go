package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// terminalNavigator is the oauth.Navigator of the CLI: there is no browser
// to drive, so redirects are printed for the user to open and route changes
// are remembered and echoed.
type terminalNavigator struct {
	mu    sync.Mutex
	w     io.Writer
	route string
}

func newTerminalNavigator(w io.Writer) *terminalNavigator {
	return &terminalNavigator{w: w}
}

func (n *terminalNavigator) Redirect(_ context.Context, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "Open this link in your browser to continue:\n  %s\n", url)
	return err
}

func (n *terminalNavigator) Navigate(_ context.Context, route string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = route
	_, err := fmt.Fprintf(n.w, "-> %s\n", route)
	return err
}

// Route is the last in-app route navigated to.
func (n *terminalNavigator) Route() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}
