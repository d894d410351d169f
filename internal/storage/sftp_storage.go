package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// SFTPStorage is the file-transfer-secure variant. Same connection policy as
// FTP: one lazily-dialed connection per backend, serialized by a mutex.
type SFTPStorage struct {
	addr     string
	username string
	password string
	basePath string

	mu     sync.Mutex
	ssh    *ssh.Client
	client *sftp.Client
}

func NewSFTPStorage(config *BackendConfig) *SFTPStorage {
	port := config.Port
	if port == 0 {
		port = 22
	}
	return &SFTPStorage{
		addr:     fmt.Sprintf("%s:%d", config.Host, port),
		username: config.Username,
		password: config.Password,
		basePath: strings.TrimSuffix(config.BasePath, "/"),
	}
}

// connect establishes or revives the session. Callers must hold mu.
func (s *SFTPStorage) connect() error {
	if s.client != nil {
		if _, err := s.client.Getwd(); err == nil {
			return nil
		}
		s.client.Close()
		s.ssh.Close()
		s.client = nil
		s.ssh = nil
	}

	sshConfig := &ssh.ClientConfig{
		User:            s.username,
		Auth:            []ssh.AuthMethod{ssh.Password(s.password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	sshConn, err := ssh.Dial("tcp", s.addr, sshConfig)
	if err != nil {
		return apperr.Wrap(apperr.KindAuth, err, "sftp connect to %s failed", s.addr)
	}

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return apperr.Wrap(apperr.KindBackend, err, "sftp session init failed")
	}

	s.ssh = sshConn
	s.client = client
	return nil
}

func (s *SFTPStorage) remotePath(key string) string {
	return s.basePath + "/" + strings.TrimPrefix(key, "/")
}

func (s *SFTPStorage) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return nil, err
	}

	file, err := s.client.Open(s.remotePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "object %q not found", key)
		}
		return nil, apperr.Wrap(apperr.KindBackend, err, "sftp read %q failed", key)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, err, "sftp read %q failed", key)
	}
	return data, nil
}

func (s *SFTPStorage) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return err
	}

	remote := s.remotePath(key)
	if err := s.client.MkdirAll(path.Dir(remote)); err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "sftp write %q failed", key)
	}

	file, err := s.client.Create(remote)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "sftp write %q failed", key)
	}
	defer file.Close()

	if _, err := io.Copy(file, bytes.NewReader(data)); err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "sftp write %q failed", key)
	}
	return nil
}

func (s *SFTPStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, apperr.New(apperr.KindUnsupported, "list is not supported on sftp backends")
}

func (s *SFTPStorage) CheckCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connect()
}
