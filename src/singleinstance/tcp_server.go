package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	residentHost   = "127.0.0.1"
	pingRequest    = "PING\n"
	pongResponse   = "PONG\n"
	captureRequest = "CAPTURE"

	statusSuccess   = "SUCCESS\n"
	statusCancelled = "CANCELLED\n"
	statusError     = "ERROR\n"
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu        sync.Mutex
	lis       net.Listener
	incoming  chan *tcpConn
	ports     Ports
	port      int
	closeOnce sync.Once
}

func newTCPServer(ports Ports) *tcpServer {
	return &tcpServer{incoming: make(chan *tcpConn, 8), ports: ports}
}

// Start binds ONLY the start port of the range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start := s.ports.Start
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return fmt.Errorf("%w: port %d: %v", ErrAlreadyRunning, start, err)
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)
		if line == pingRequest {
			log.Printf("singleinstance: PING from %s -> PONG", remote)
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		req, ok := parseRequest(line)
		if !ok {
			log.Printf("singleinstance: bad request from %s: %q", remote, line)
			_, _ = bw.WriteString(statusError + "bad request")
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		// The client waits while the user selects.
		_ = c.SetDeadline(time.Time{})
		log.Printf("singleinstance: capture request from %s action=%q", remote, req.Action)
		select {
		case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

func parseRequest(line string) (Request, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != captureRequest || len(fields) > 2 {
		return Request{}, false
	}
	if len(fields) == 1 {
		return Request{}, true
	}
	switch fields[1] {
	case "save", "copy":
		return Request{Action: fields[1]}, true
	}
	return Request{}, false
}

func (r Request) line() string {
	if r.Action == "" {
		return captureRequest + "\n"
	}
	return captureRequest + " " + r.Action + "\n"
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc := <-s.incoming:
		return tc, nil
	}
}

// Close stops accepting. Requests already queued are left to Next's
// caller.
func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(path string) error {
	return tc.write(statusSuccess + path)
}

func (tc *tcpConn) RespondCancelled() error { return tc.write(statusCancelled) }

func (tc *tcpConn) RespondError(msg string) error { return tc.write(statusError + msg) }

func (tc *tcpConn) write(s string) error {
	if _, err := tc.w.WriteString(s); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
