package storage

import (
	"context"
	"errors"
	"io"
)

// Uploader define la interfaz del gateway de almacenamiento de archivos.
// Devuelve la URL pública del archivo subido.
type Uploader interface {
	Upload(ctx context.Context, fileName string, content io.Reader, size int64) (string, error)
}

type disabledUploader struct {
	reason string
}

// NewDisabledUploader devuelve un Uploader que siempre falla con el motivo dado.
func NewDisabledUploader(reason string) Uploader {
	return &disabledUploader{reason: reason}
}

func (u *disabledUploader) Upload(_ context.Context, _ string, _ io.Reader, _ int64) (string, error) {
	if u.reason == "" {
		return "", errors.New("storage uploader disabled")
	}
	return "", errors.New(u.reason)
}
