package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
)

var pdfMagic = []byte("%PDF")

// SavedReport describes a stored report artifact.
type SavedReport struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// Service stores uploaded PDF inspection reports on local disk under a
// year/month directory layout and serves them back by relative path.
type Service struct {
	dir      string
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(cfg config.ReportsConfig, logg *logger.Logger) (*Service, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("reports directory required")
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return &Service{
		dir:      cfg.Dir,
		maxBytes: int64(maxMB) * 1024 * 1024,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Save validates and persists one uploaded PDF. The returned URL is the
// relative reference stored on the record and sent to the partner.
func (s *Service) Save(ctx context.Context, fileName string, content io.Reader) (*SavedReport, error) {
	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("report exceeds %d MB limit", s.maxBytes/(1024*1024)))
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report file is empty")
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report must be a PDF file")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report content is not a PDF")
	}

	now := s.now()
	relDir := filepath.Join(fmt.Sprintf("%d", now.Year()), fmt.Sprintf("%02d", now.Month()))
	targetDir := filepath.Join(s.dir, relDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating report directory")
	}

	stored := uuid.NewString() + ".pdf"
	fullPath := filepath.Join(targetDir, stored)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing report file")
	}

	relPath := filepath.ToSlash(filepath.Join(relDir, stored))
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "report", relPath), "report stored")
	}

	return &SavedReport{
		FileName: stored,
		Path:     fullPath,
		URL:      "/reports/" + relPath,
		Size:     int64(len(data)),
	}, nil
}

// Open returns the stored report for the given relative path. Paths that
// escape the reports directory are rejected.
func (s *Service) Open(relPath string) (io.ReadCloser, error) {
	cleaned := filepath.Clean(strings.TrimPrefix(relPath, "/"))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report path")
	}

	file, err := os.Open(filepath.Join(s.dir, cleaned))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening report")
	}
	return file, nil
}
