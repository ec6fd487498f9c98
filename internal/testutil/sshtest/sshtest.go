// Package sshtest runs an in-process SSH server that emulates just enough of
// a remote shell for exercising session management against a real transport.
package sshtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	User     = "testuser"
	Password = "secret"
)

// Server is a loopback SSH server accepting User/Password and emulating a
// tiny shell for exec requests:
//
//	echo <text>  -> <text>\n on stdout, status 0
//	boom         -> partial\n on stdout, kaboom\n on stderr, status 1
//	anything else -> no output, status 0
type Server struct {
	Addr string

	ln     net.Listener
	stopCh chan struct{}
	done   chan struct{}
}

// Start launches the server on a random loopback port.
func Start() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		ln.Close()
		return nil, err
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		ln.Close()
		return nil, err
	}

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if meta.User() == User && string(pass) == Password {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied for %q", meta.User())
		},
	}
	cfg.AddHostKey(signer)

	s := &Server{
		Addr:   ln.Addr().String(),
		ln:     ln,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go s.acceptLoop(cfg)

	return s, nil
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() uint {
	return uint(s.ln.Addr().(*net.TCPAddr).Port)
}

// Stop closes the listener and drops every live connection, so probes and
// commands against existing sessions start failing.
func (s *Server) Stop() {
	select {
	case <-s.stopCh:
		return
	default:
	}
	close(s.stopCh)
	_ = s.ln.Close()
	<-s.done
}

func (s *Server) acceptLoop(cfg *ssh.ServerConfig) {
	defer close(s.done)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		go func() {
			defer conn.Close()
			s.handleConn(conn, cfg)
		}()

		go func() {
			<-s.stopCh
			_ = conn.Close()
		}()
	}
}

func (s *Server) handleConn(raw net.Conn, cfg *ssh.ServerConfig) {
	sc, chans, reqs, err := ssh.NewServerConn(raw, cfg)
	if err != nil {
		return
	}
	defer sc.Close()

	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "only sessions supported")
			continue
		}

		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}

		go handleSession(ch, chReqs)
	}
}

type exitStatusMsg struct {
	Status uint32
}

func handleSession(ch ssh.Channel, in <-chan *ssh.Request) {
	defer ch.Close()

	for req := range in {
		switch req.Type {
		case "exec":
			command := parseExecPayload(req.Payload)
			_ = req.Reply(true, nil)
			status := emulate(ch, command)
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&exitStatusMsg{Status: status}))
			return
		case "env", "pty-req", "shell":
			_ = req.Reply(true, nil)
		default:
			_ = req.Reply(false, nil)
		}
	}
}

func parseExecPayload(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	n := binary.BigEndian.Uint32(payload)
	if uint32(len(payload)-4) < n {
		return string(payload[4:])
	}
	return string(payload[4 : 4+n])
}

func emulate(ch ssh.Channel, command string) uint32 {
	command = strings.TrimSpace(command)

	switch {
	case strings.HasPrefix(command, "echo "):
		text := strings.TrimPrefix(command, "echo ")
		text = strings.Trim(text, "'\"")
		fmt.Fprintf(ch, "%s\n", text)
		return 0
	case command == "boom":
		fmt.Fprintf(ch, "partial\n")
		fmt.Fprintf(ch.Stderr(), "kaboom\n")
		return 1
	default:
		return 0
	}
}
