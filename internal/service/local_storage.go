package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"multisign-server/internal/model"
	"multisign-server/internal/util"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
)

// LocalStorage : хранилище содержимого в каталоге файловой системы, один файл на документ
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, util.LogError("[LocalStorage] не удалось создать каталог", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("[LocalStorage] недопустимый ключ %q: %w", key, model.ErrInvalidDocument)
	}
	return filepath.Join(s.dir, key+".pdf"), nil
}

// write : атомарная замена файла, читатель не увидит частично записанный файл
func (s *LocalStorage) write(key string, content string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return fmt.Errorf("[LocalStorage] содержимое не в base64: %w", model.ErrInvalidDocument)
	}

	if err := renameio.WriteFile(path, data, 0o640); err != nil {
		return util.LogError("[LocalStorage] не удалось сохранить файл", err)
	}
	return nil
}

func (s *LocalStorage) Add(_ context.Context, key string, content string) error {
	return s.write(key, content)
}

func (s *LocalStorage) Get(_ context.Context, key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("[LocalStorage] файл не найден", zap.String("doc", key))
		return "", fmt.Errorf("[LocalStorage] документ %s: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return "", util.LogError("[LocalStorage] не удалось прочитать файл", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *LocalStorage) Update(_ context.Context, key string, content string) error {
	return s.write(key, content)
}

// Remove : удаление отсутствующего файла не считается ошибкой
func (s *LocalStorage) Remove(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return util.LogError("[LocalStorage] не удалось удалить файл", err)
	}
	return nil
}
