package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Providers(ctx context.Context) error
	OAuth(ctx context.Context, provider string) error
	Callback(ctx context.Context, raw string) error
	Get(ctx context.Context, path string) error
}

// runREPL starts a simple read–eval–print loop for the SalonMate CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current user (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help               - show available commands
//	  - signup             - create an account
//	  - login              - sign in with email and password
//	  - providers          - list social sign-in providers
//	  - oauth <provider>   - start social sign-in
//	  - callback <url>     - finish social sign-in from the redirect address
//	  - exit | quit        - leave the program
//
//	Logged in:
//	  - help               - show available commands
//	  - whoami             - show the signed-in user
//	  - get <path>         - authenticated GET, e.g. "get /reviews?page=1"
//	  - logout             - sign out
//	  - exit | quit        - leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("salonmate %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, get <path>, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, providers, oauth <provider>, callback <url>, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "providers":
			_ = a.Providers(ctx)

		case "oauth":
			if len(args) == 0 {
				printlnFn("Usage: oauth <provider>")
				continue
			}
			_ = a.OAuth(ctx, args[0])

		case "callback":
			if len(args) == 0 {
				printlnFn("Usage: callback <redirect-url>")
				continue
			}
			_ = a.Callback(ctx, args[0])

		case "get":
			if len(args) == 0 {
				printlnFn("Usage: get <path>")
				continue
			}
			_ = a.Get(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
