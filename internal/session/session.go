// Copyright 2025 Skiff Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session establishes SSH connections and binds the SFTP subsystem
// to a client facade. A Session owns the whole stack: the TCP connection,
// the SSH transport, the subsystem channel and the protocol engine. Closing
// the session tears all of it down.
package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"skiff/internal/sftp"
	"skiff/internal/transfer"
	"skiff/internal/util"
	"skiff/internal/wire"
)

// Config describes how to reach and authenticate against a server.
type Config struct {
	Host           string
	Port           int
	User           string
	IdentityFile   string
	KnownHostsFile string
	// InsecureHostKey skips host key verification. Test use only.
	InsecureHostKey bool
	Timeout         time.Duration

	Logger *logrus.Entry
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", port))
}

// Session is a live SFTP connection. The embedded Client is valid until
// Close is called.
type Session struct {
	*sftp.Client

	eng  *wire.Engine
	ssh  *ssh.Client
	sess *ssh.Session
}

// Extensions returns the protocol extensions the server advertised.
func (s *Session) Extensions() map[string]string {
	return s.eng.Extensions()
}

// Dial connects to the configured server, requests the sftp subsystem and
// returns a ready-to-use session. Transient network failures during the
// TCP dial are retried with backoff.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	sshCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := util.RetryWithResult(func() (*ssh.Client, error) {
		return ssh.Dial("tcp", cfg.addr(), sshCfg)
	}, util.DialRetryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.addr(), err)
	}

	sess, ch, err := openSubsystem(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	var opts []wire.Option
	if cfg.Logger != nil {
		opts = append(opts, wire.WithLogger(cfg.Logger))
	}
	eng, err := wire.New(ch, opts...)
	if err != nil {
		sess.Close()
		conn.Close()
		return nil, fmt.Errorf("sftp handshake: %w", err)
	}

	var xferOpts []transfer.Option
	var clientOpts []sftp.Option
	if cfg.Logger != nil {
		xferOpts = append(xferOpts, transfer.WithLogger(cfg.Logger))
		clientOpts = append(clientOpts, sftp.WithLogger(cfg.Logger))
	}
	xfer := transfer.New(eng, osfs.New("/"), xferOpts...)

	return &Session{
		Client: sftp.NewClient(eng, xfer, clientOpts...),
		eng:    eng,
		ssh:    conn,
		sess:   sess,
	}, nil
}

// Close shuts down the protocol engine, the subsystem channel and the SSH
// transport, in that order. The first error wins.
func (s *Session) Close() error {
	err := s.Client.Close()
	if serr := s.sess.Close(); err == nil && serr != io.EOF {
		err = serr
	}
	if cerr := s.ssh.Close(); err == nil {
		err = cerr
	}
	return err
}

func clientConfig(cfg Config) (*ssh.ClientConfig, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("session: host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("session: user is required")
	}

	var auth []ssh.AuthMethod
	if cfg.IdentityFile != "" {
		key, err := os.ReadFile(cfg.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("read identity file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse identity file %s: %w", cfg.IdentityFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("session: no auth method configured")
	}

	hostKey, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}, nil
}

func hostKeyCallback(cfg Config) (ssh.HostKeyCallback, error) {
	if cfg.InsecureHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := cfg.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve known_hosts: %w", err)
		}
		path = home + "/.ssh/known_hosts"
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", path, err)
	}
	return cb, nil
}

// sshChannel glues a session's stdin/stdout pipes into the single
// duplex stream the protocol engine expects.
type sshChannel struct {
	io.Reader
	io.WriteCloser
}

func openSubsystem(conn *ssh.Client) (*ssh.Session, io.ReadWriteCloser, error) {
	sess, err := conn.NewSession()
	if err != nil {
		return nil, nil, fmt.Errorf("open session: %w", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := sess.RequestSubsystem("sftp"); err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("request sftp subsystem: %w", err)
	}
	return sess, sshChannel{Reader: stdout, WriteCloser: stdin}, nil
}
