// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

// Mcpgate-call is a command-line client for mcpgate sessions. It
// dials a gateway session and bridges it to the terminal: stdin lines
// become messages, messages become stdout lines. Useful for probing a
// registered tool server without writing a WebSocket client.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mcpgate/mcpgate/lib/version"
)

// Default gateway address (can be overridden via --addr or the
// MCPGATE_ADDR env var).
const defaultGatewayAddr = "127.0.0.1:7433"

func main() {
	os.Exit(run())
}

func run() int {
	var sendMessage string
	var timeout time.Duration
	var gatewayAddr string

	flagSet := pflag.NewFlagSet("mcpgate-call", pflag.ContinueOnError)
	flagSet.StringVar(&sendMessage, "send", "", "send one message, print the first reply, and exit")
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second, "reply timeout for --send")
	flagSet.StringVar(&gatewayAddr, "addr", "", "gateway address for bare server names (default: $MCPGATE_ADDR, else "+defaultGatewayAddr+")")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other mcpgate
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("mcpgate-call")
		return 0
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return 0
	}

	args := flagSet.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: mcpgate-call [flags] <server-name | ws://host:port/mcp/name>\n")
		fmt.Fprintf(os.Stderr, "run mcpgate-call --help for details\n")
		return 1
	}
	target := resolveTarget(args[0], gatewayAddr)

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
	conn, response, err := websocket.Dial(dialCtx, target, nil)
	cancelDial()
	if err != nil {
		if response != nil && response.StatusCode == http.StatusNotFound {
			fmt.Fprintf(os.Stderr, "error: gateway has no server at %s\n", target)
		} else {
			fmt.Fprintf(os.Stderr, "error: dialing %s: %v\n", target, err)
		}
		return 1
	}
	defer conn.CloseNow()
	conn.SetReadLimit(-1)

	if sendMessage != "" {
		return oneShot(conn, sendMessage, timeout)
	}
	return interactive(conn)
}

// resolveTarget turns a bare server name into a session URL against
// the configured gateway. Full ws:// and wss:// URLs pass through.
func resolveTarget(argument, gatewayAddr string) string {
	if strings.HasPrefix(argument, "ws://") || strings.HasPrefix(argument, "wss://") {
		return argument
	}
	if gatewayAddr == "" {
		gatewayAddr = os.Getenv("MCPGATE_ADDR")
	}
	if gatewayAddr == "" {
		gatewayAddr = defaultGatewayAddr
	}
	return fmt.Sprintf("ws://%s/mcp/%s", gatewayAddr, argument)
}

// oneShot sends a single message and prints the first reply.
func oneShot(conn *websocket.Conn, message string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, []byte(message)); err != nil {
		fmt.Fprintf(os.Stderr, "error: sending: %v\n", err)
		return 1
	}
	_, reply, err := conn.Read(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(os.Stderr, "error: no reply within %s\n", timeout)
		} else {
			fmt.Fprintf(os.Stderr, "error: waiting for reply: %v\n", err)
		}
		return 1
	}
	fmt.Println(string(reply))
	conn.Close(websocket.StatusNormalClosure, "")
	return 0
}

// interactive bridges the session to the terminal until the server
// closes it. Stdin ending stops the send side only; replies keep
// printing, since tools may stream long after the last input.
func interactive(conn *websocket.Conn) int {
	prompt := ""
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prompt = "> "
	}

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			fmt.Fprint(os.Stderr, prompt)
			if !scanner.Scan() {
				return
			}
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := conn.Write(context.Background(), websocket.MessageText, []byte(line)); err != nil {
				// The read loop reports the session ending.
				return
			}
		}
	}()

	for {
		_, message, err := conn.Read(context.Background())
		if err != nil {
			return reportClosure(err)
		}
		fmt.Println(string(message))
	}
}

// reportClosure maps the session ending to an exit code: clean
// closures exit 0, everything else exits 1 with the reason on
// stderr.
func reportClosure(err error) int {
	var closeError websocket.CloseError
	if errors.As(err, &closeError) {
		switch closeError.Code {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			if closeError.Reason != "" {
				fmt.Fprintf(os.Stderr, "session closed: %s\n", closeError.Reason)
			}
			return 0
		default:
			fmt.Fprintf(os.Stderr, "session failed: %s (status %d)\n", closeError.Reason, closeError.Code)
			return 1
		}
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Mcpgate-call bridges a gateway session to the terminal.

Stdin lines are sent as messages; received messages print to stdout,
one per line. When stdin ends the send side stops, but replies keep
printing until the server closes the session (Ctrl-C to stop early).
With --send, exactly one message is sent and the first reply printed.

Usage:
  mcpgate-call [flags] <server-name | ws://host:port/mcp/name>

Examples:
  # Interactive session with the "echo" server on the local gateway
  mcpgate-call echo

  # One-shot probe
  mcpgate-call --send '{"jsonrpc":"2.0","method":"ping","id":1}' echo

  # Session against a remote gateway
  mcpgate-call ws://tools.internal:7433/mcp/search

Environment:
  MCPGATE_ADDR  Gateway address for bare server names (default: %s)

Flags:
%s`, defaultGatewayAddr, flagSet.FlagUsages())
}
