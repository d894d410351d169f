package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// FTPStorage is the file-transfer-push variant. The server connection is
// stateful, so a single connection is held per configured backend and every
// operation serializes through the mutex; naive concurrent use of one FTP
// control connection is unsafe.
type FTPStorage struct {
	addr     string
	username string
	password string
	basePath string

	mu   sync.Mutex
	conn *ftp.ServerConn
}

func NewFTPStorage(config *BackendConfig) *FTPStorage {
	port := config.Port
	if port == 0 {
		port = 21
	}
	return &FTPStorage{
		addr:     fmt.Sprintf("%s:%d", config.Host, port),
		username: config.Username,
		password: config.Password,
		basePath: strings.TrimSuffix(config.BasePath, "/"),
	}
}

// connect establishes or revives the connection. Callers must hold mu.
func (s *FTPStorage) connect() error {
	if s.conn != nil {
		if err := s.conn.NoOp(); err == nil {
			return nil
		}
		s.conn.Quit()
		s.conn = nil
	}

	conn, err := ftp.Dial(s.addr, ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "ftp connect to %s failed", s.addr)
	}
	if err := conn.Login(s.username, s.password); err != nil {
		conn.Quit()
		return apperr.Wrap(apperr.KindAuth, err, "ftp login failed")
	}

	s.conn = conn
	return nil
}

func (s *FTPStorage) remotePath(key string) string {
	return s.basePath + "/" + strings.TrimPrefix(key, "/")
}

func (s *FTPStorage) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return nil, err
	}

	resp, err := s.conn.Retr(s.remotePath(key))
	if err != nil {
		return nil, classifyFTP(err, key)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, err, "ftp read %q failed", key)
	}
	return data, nil
}

func (s *FTPStorage) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return err
	}

	remote := s.remotePath(key)
	s.makeDirs(path.Dir(remote))

	if err := s.conn.Stor(remote, bytes.NewReader(data)); err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "ftp write %q failed", key)
	}
	return nil
}

// makeDirs creates each missing segment; servers answer 550 for segments
// that already exist, which is fine.
func (s *FTPStorage) makeDirs(dir string) {
	if dir == "" || dir == "/" || dir == "." {
		return
	}
	segments := strings.Split(strings.Trim(dir, "/"), "/")
	current := ""
	for _, segment := range segments {
		current += "/" + segment
		_ = s.conn.MakeDir(current)
	}
}

func (s *FTPStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, apperr.New(apperr.KindUnsupported, "list is not supported on ftp backends")
}

func (s *FTPStorage) CheckCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connect()
}

func classifyFTP(err error, key string) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable {
		return apperr.Wrap(apperr.KindNotFound, err, "object %q not found", key)
	}
	return apperr.Wrap(apperr.KindBackend, err, "ftp read %q failed", key)
}
