package source

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// fakeS3 serves objects over the subset of s3 api that minio client
// uses for GetObject (HEAD + GET) and PutObject (PUT)
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method == http.MethodPut {
		d, _ := io.ReadAll(r.Body)
		s.objects[r.URL.Path] = d
		w.Header().Set("ETag", `"put-etag"`)
		w.WriteHeader(http.StatusOK)
		return
	}
	d, ok := s.objects[r.URL.Path]
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
		}
		return
	}
	w.Header().Set("ETag", `"0123456789abcdef"`)
	modTime := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	http.ServeContent(w, r, path.Base(r.URL.Path), modTime, bytes.NewReader(d))
}

func startFakeS3(t *testing.T, objects map[string][]byte) (*fakeS3, *Config) {
	s := &fakeS3{objects: objects}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	c := &Config{
		S3: S3Config{
			Endpoint: strings.TrimPrefix(srv.URL, "http://"),
			Access:   "access",
			Secret:   "secret",
			// with region set, client doesn't ask for bucket location
			Region:   "us-east-1",
			Insecure: true,
		},
	}
	return s, c
}

func TestS3Open(t *testing.T) {
	_, c := startFakeS3(t, map[string][]byte{
		"/contacts/c.vcf": []byte(testCard),
	})
	ctx := context.Background()

	r, err := Open(ctx, "s3://contacts/c.vcf", c)
	assert.NoError(t, err)
	assert.Equal(t, testCard, readAll(t, r))

	_, err = Open(ctx, "s3://contacts/missing.vcf", c)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "s3://contacts/missing.vcf"), "%s", err)
}

func TestS3Upload(t *testing.T) {
	s, c := startFakeS3(t, map[string][]byte{})
	err := Upload(context.Background(), "s3://contacts/c.vcf", []byte(testCard), c)
	assert.NoError(t, err)

	s.mu.Lock()
	d, ok := s.objects["/contacts/c.vcf"]
	s.mu.Unlock()
	assert.True(t, ok)
	// body might be aws-chunked, which wraps data in chunk headers
	assert.True(t, bytes.Contains(d, []byte(testCard)), "%q", d)
}

// serveSSH accepts sessions that ask for sftp subsystem and serves
// local file system over it
func serveSSH(conn net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		_ = conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range requests {
				// payload is ssh string: uint32 length + name
				ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
				_ = req.Reply(ok, nil)
				if !ok {
					continue
				}
				srv, err := sftp.NewServer(ch)
				if err != nil {
					return
				}
				_ = srv.Serve()
				_ = srv.Close()
				return
			}
		}()
	}
}

// startSFTPServer starts ssh server that accepts only clientKey and
// registers its host key in $HOME/.ssh/known_hosts. Returns host:port.
func startSFTPServer(t *testing.T, home string, clientKey ssh.PublicKey) string {
	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(t, err)
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	assert.NoError(t, err)

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), clientKey.Marshal()) {
				return nil, nil
			}
			return nil, errors.New("unknown public key")
		},
	}
	config.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSH(conn, config)
		}
	}()

	addr := ln.Addr().String()
	sshDir := filepath.Join(home, ".ssh")
	assert.NoError(t, os.MkdirAll(sshDir, 0700))
	line := knownhosts.Line([]string{knownhosts.Normalize(addr)}, hostSigner.PublicKey())
	err = os.WriteFile(filepath.Join(sshDir, "known_hosts"), []byte(line+"\n"), 0600)
	assert.NoError(t, err)
	return addr
}

// writeClientKey writes a new private key in OpenSSH format to dir
func writeClientKey(t *testing.T, dir string) (string, ssh.PublicKey) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	assert.NoError(t, err)
	path := filepath.Join(dir, "id_ed25519")
	err = os.WriteFile(path, pem.EncodeToMemory(block), 0600)
	assert.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	assert.NoError(t, err)
	return path, signer.PublicKey()
}

func TestSFTP(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	keyPath, pubKey := writeClientKey(t, t.TempDir())
	addr := startSFTPServer(t, home, pubKey)
	c := &Config{
		SSHKeyPath: keyPath,
		Timeout:    10 * time.Second,
	}
	ctx := context.Background()

	dir := filepath.ToSlash(t.TempDir())
	loc := "sftp://me@" + addr + dir + "/contacts.vcf"

	err := Upload(ctx, loc, []byte(testCard), c)
	assert.NoError(t, err)
	d, err := os.ReadFile(filepath.Join(dir, "contacts.vcf"))
	assert.NoError(t, err)
	assert.Equal(t, testCard, string(d))
	// temporary file was renamed
	_, err = os.Stat(filepath.Join(dir, "contacts.vcf.tmp"))
	assert.True(t, os.IsNotExist(err))

	r, err := Open(ctx, loc, c)
	assert.NoError(t, err)
	assert.Equal(t, testCard, readAll(t, r))

	_, err = Open(ctx, "sftp://me@"+addr+dir+"/missing.vcf", c)
	assert.Error(t, err)
}

func TestSFTPUnknownHost(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	keyPath, pubKey := writeClientKey(t, t.TempDir())
	addr := startSFTPServer(t, home, pubKey)
	// forget the host key
	err := os.WriteFile(filepath.Join(home, ".ssh", "known_hosts"), nil, 0600)
	assert.NoError(t, err)

	c := &Config{SSHKeyPath: keyPath, Timeout: 10 * time.Second}
	_, err = Open(context.Background(), "sftp://me@"+addr+"/contacts.vcf", c)
	assert.Error(t, err)
}
