// Figure Watch - terminal viewer for a running figure server
//
// Prints the server status, optionally starts actions, then follows the
// frame or event stream.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-figure/internal/httpc"
	"github.com/teslashibe/go-figure/internal/log"
	"github.com/teslashibe/go-figure/pkg/hub"
	"github.com/teslashibe/go-figure/pkg/server"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Figure server host:port")
	stream := flag.String("stream", "frames", "Stream to follow: frames or events")
	activate := flag.String("activate", "", "Comma-separated actions to start first")
	count := flag.Int("n", 0, "Stop after n messages (0 = until interrupted)")
	flag.Parse()

	log.InitWriter(os.Stderr, "info")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	base := "http://" + *addr
	var status server.StatusResponse
	if err := httpc.GetJSON(ctx, base+"/api/status", &status); err != nil {
		log.Error("status", "addr", *addr, "error", err)
		os.Exit(1)
	}
	fmt.Printf("🦾 %s: frame %d, %d active, %d watching\n",
		status.Figure, status.Driver.Frame, len(status.Active), status.Clients)

	if *activate != "" {
		for _, name := range strings.Split(*activate, ",") {
			name = strings.TrimSpace(name)
			path := base + "/api/actions/" + url.PathEscape(name) + "/activate"
			if err := httpc.PostJSON(ctx, path, nil, nil); err != nil {
				log.Error("activate", "action", name, "error", err)
				os.Exit(1)
			}
			fmt.Printf("▶️  %s\n", name)
		}
	}

	wsURL := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/" + *stream}
	if err := watch(ctx, wsURL.String(), os.Stdout, *count); err != nil {
		log.Error("watch", "url", wsURL.String(), "error", err)
		os.Exit(1)
	}
}

// watch prints up to n messages (all if n <= 0) from a websocket stream.
func watch(ctx context.Context, wsURL string, w io.Writer, n int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Hang up on interrupt or once n messages were read.
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for seen := 0; n <= 0 || seen < n; seen++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fmt.Fprintln(w, format(data))
	}
	return nil
}

// format renders a frame as one line of joint positions; anything else is
// printed as received.
func format(data []byte) string {
	var env hub.FrameEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != "frame" {
		return string(data)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#%-6d", env.Frame.Frame)
	for _, j := range env.Frame.Joints {
		fmt.Fprintf(&b, " %s[", j.Name)
		for i, p := range j.Positions {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.3f", p)
		}
		b.WriteByte(']')
	}
	return b.String()
}
