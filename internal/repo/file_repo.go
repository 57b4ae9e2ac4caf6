package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/studyforge/studyforge/internal/model"
	"github.com/studyforge/studyforge/internal/pkg/dbutil"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

const fileTable = "study_files"

var fileFields = []string{"id", "filename", "size", "word_count", "text", "storage_key", "ctime"}

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, f *model.StudyFile) error {
	data := map[string]interface{}{
		"id":          f.ID,
		"filename":    f.Filename,
		"size":        f.Size,
		"word_count":  f.WordCount,
		"text":        f.Text,
		"storage_key": f.StorageKey,
		"ctime":       f.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert(fileTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return fmt.Errorf("%w: file %s", appErr.ErrConflict, f.ID)
		}
		return fmt.Errorf("%w: create file: %v", appErr.ErrStore, err)
	}
	return nil
}

func (r *FileRepo) Get(ctx context.Context, id string) (*model.StudyFile, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect(fileTable, where, fileFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	item, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: file %s", appErr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get file: %v", appErr.ErrStore, err)
	}
	return item, nil
}

func (r *FileRepo) List(ctx context.Context, offset, limit int) ([]*model.StudyFile, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect(fileTable, where, fileFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %v", appErr.ErrStore, err)
	}
	defer rows.Close()
	var results []*model.StudyFile
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list files: %v", appErr.ErrStore, err)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *FileRepo) Delete(ctx context.Context, id string) error {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildDelete(fileTable, where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("%w: delete file: %v", appErr.ErrStore, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: file %s", appErr.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*model.StudyFile, error) {
	var item model.StudyFile
	if err := row.Scan(&item.ID, &item.Filename, &item.Size, &item.WordCount, &item.Text, &item.StorageKey, &item.Ctime); err != nil {
		return nil, err
	}
	return &item, nil
}
