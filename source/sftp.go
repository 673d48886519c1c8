package source

import (
	"io"
	"net"
	"path/filepath"
	"strconv"

	"github.com/kjk/vcard/u"
	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

const defaultSSHPort = 22

func sshKeyPath(c *Config) (string, error) {
	if c.SSHKeyPath != "" {
		return u.ExpandTildeInPath(c.SSHKeyPath)
	}
	home, err := u.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ssh", "id_rsa"), nil
}

func splitHostPort(hostPort string) (string, uint, error) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		// no port
		return hostPort, defaultSSHPort, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, err
	}
	return host, uint(port), nil
}

// sftpConn owns ssh connection and sftp session on top of it
type sftpConn struct {
	ssh  *goph.Client
	sftp *sftp.Client
}

func (c *sftpConn) Close() error {
	err := c.sftp.Close()
	err2 := c.ssh.Close()
	if err != nil {
		return err
	}
	return err2
}

func dialSFTP(l *Location, c *Config) (*sftpConn, error) {
	keyPath, err := sshKeyPath(c)
	if err != nil {
		return nil, err
	}
	auth, err := goph.Key(keyPath, "")
	if err != nil {
		return nil, err
	}
	host, port, err := splitHostPort(l.Host)
	if err != nil {
		return nil, err
	}
	callback, err := goph.DefaultKnownHosts()
	if err != nil {
		return nil, err
	}
	client, err := goph.NewConn(&goph.Config{
		User:     l.User,
		Addr:     host,
		Port:     port,
		Auth:     auth,
		Timeout:  c.timeout(),
		Callback: callback,
	})
	if err != nil {
		return nil, err
	}
	sc, err := client.NewSftp()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &sftpConn{ssh: client, sftp: sc}, nil
}

// sftpFile closes the connection together with the file
type sftpFile struct {
	*sftp.File
	conn *sftpConn
}

func (f *sftpFile) Close() error {
	err := f.File.Close()
	err2 := f.conn.Close()
	if err != nil {
		return err
	}
	return err2
}

func openSFTP(l *Location, c *Config) (io.ReadCloser, error) {
	conn, err := dialSFTP(l, c)
	if err != nil {
		return nil, err
	}
	f, err := conn.sftp.Open(l.Path)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &sftpFile{File: f, conn: conn}, nil
}

// writes to a temporary file and renames over destination,
// same as atomicfile does locally
func uploadSFTP(l *Location, d []byte, c *Config) error {
	conn, err := dialSFTP(l, c)
	if err != nil {
		return err
	}
	defer u.CloseNoError(conn)

	tmpPath := l.Path + ".tmp"
	f, err := conn.sftp.Create(tmpPath)
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	err2 := f.Close()
	if err == nil {
		err = err2
	}
	if err == nil {
		err = conn.sftp.PosixRename(tmpPath, l.Path)
	}
	if err != nil {
		_ = conn.sftp.Remove(tmpPath)
	}
	return err
}
