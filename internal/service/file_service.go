package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/filestore"
	"github.com/studyforge/studyforge/internal/model"
	"github.com/studyforge/studyforge/internal/parser"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/pkg/ids"
	"github.com/studyforge/studyforge/internal/repo"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

type UploadResult struct {
	File   *model.StudyFile    `json:"file"`
	Report *model.IngestReport `json:"report"`
}

type FileService struct {
	files   *repo.FileRepo
	vectors vectorstore.Store
	blobs   filestore.Store
	ingest  *IngestService
	cfg     config.CoreConfig
}

// NewFileService accepts a nil file repo; metadata then lives only in
// the vector store and listing is unavailable.
func NewFileService(files *repo.FileRepo, vectors vectorstore.Store, blobs filestore.Store, ingest *IngestService, cfg config.CoreConfig) *FileService {
	return &FileService{files: files, vectors: vectors, blobs: blobs, ingest: ingest, cfg: cfg}
}

// Upload validates, parses, persists and ingests one document.
func (s *FileService) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", appErr.ErrInvalid)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, s.cfg.MaxUploadBytes)
	}
	if !parser.IsSupported(filename) {
		return nil, fmt.Errorf("%w: unsupported file type: %s", appErr.ErrInvalid, filename)
	}
	parsed, err := parser.Parse(data, filename)
	if err != nil {
		return nil, err
	}

	id := ids.NewFileID()
	storageKey := id + strings.ToLower(filepath.Ext(filename))
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", id), zap.String("filename", filename))

	if s.blobs != nil {
		if err := s.blobs.Save(ctx, storageKey, bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, fmt.Errorf("save upload: %w", err)
		}
	}

	file := &model.StudyFile{
		ID:         id,
		Filename:   filename,
		Size:       int64(len(data)),
		WordCount:  parsed.WordCount,
		Text:       keepChars(parsed.Text, s.cfg.TextKeepChars),
		StorageKey: storageKey,
		Ctime:      time.Now().UnixMilli(),
	}
	if s.files != nil {
		if err := s.files.Create(ctx, file); err != nil {
			return nil, err
		}
	}

	report, err := s.ingest.Ingest(ctx, id, filename, parsed.Text)
	if err != nil {
		return nil, err
	}
	logger.Info("upload ingested",
		zap.Int("word_count", parsed.WordCount),
		zap.Int("chunks", report.Processed),
		zap.Int("failed", len(report.Failed)),
	)
	return &UploadResult{File: file, Report: report}, nil
}

func (s *FileService) Get(ctx context.Context, id string) (*model.StudyFile, error) {
	if s.files == nil {
		return nil, fmt.Errorf("%w: file %s", appErr.ErrNotFound, id)
	}
	return s.files.Get(ctx, id)
}

func (s *FileService) List(ctx context.Context, offset, limit int) ([]*model.StudyFile, error) {
	if s.files == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.files.List(ctx, offset, limit)
}

// Delete removes the file row, its chunks and the stored blob. Chunk
// and blob cleanup failures are logged, not surfaced; the cron sweep
// catches leftovers.
func (s *FileService) Delete(ctx context.Context, id string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", id))
	var storageKey string
	if s.files != nil {
		file, err := s.files.Get(ctx, id)
		if err != nil {
			return err
		}
		storageKey = file.StorageKey
	}
	if _, err := s.vectors.DeleteByFile(ctx, id); err != nil {
		logger.Warn("delete chunks failed", zap.Error(err))
	}
	if s.blobs != nil && storageKey != "" {
		if err := s.blobs.Delete(ctx, storageKey); err != nil {
			logger.Warn("delete stored blob failed", zap.Error(err))
		}
	}
	if s.files != nil {
		return s.files.Delete(ctx, id)
	}
	return nil
}

// OpenRaw streams the originally uploaded bytes.
func (s *FileService) OpenRaw(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: no file store", appErr.ErrUnconfigured)
	}
	rc, err := s.blobs.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appErr.ErrNotFound, key)
	}
	return rc, nil
}

func keepChars(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
