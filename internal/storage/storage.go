// Package storage 画像ファイルの永続化・取得と保持期限切れの掃除を担う
package storage

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrImageNotFound は要求された画像が存在しない場合のエラー
	ErrImageNotFound = errors.New("画像が見つかりません")

	// ErrInvalidImagePath は保存ディレクトリ外を指すファイル名が渡された場合のエラー
	ErrInvalidImagePath = errors.New("不正な画像パスが指定されました")
)

// ImageStore はファイルシステム上のフラットな画像ストア
//
// リクエストハンドラは新規ファイルの作成のみを行い、既存ファイルの
// 書き換えは行わない（削除はSweeperの専任）
type ImageStore struct {
	baseDir string
}

// NewImageStore は保存ディレクトリを作成してImageStoreを返す
func NewImageStore(baseDir string) (*ImageStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("保存ディレクトリの作成に失敗: %w", err)
	}
	return &ImageStore{baseDir: baseDir}, nil
}

// Dir は保存ディレクトリのパスを返す
func (s *ImageStore) Dir() string {
	return s.baseDir
}

// buildFilename は画像IDとフォーマットからファイル名を組み立てる
func buildFilename(imageID, format string) string {
	extension := "png"
	if format == "jpeg" {
		extension = "jpg"
	}
	return imageID + "." + extension
}

// Save は画像をディスクへ書き込み、保存したファイル名を返す
//
// quality はJPEGのみに適用される
func (s *ImageStore) Save(img image.Image, imageID, format string, quality int) (string, error) {
	filename := buildFilename(imageID, format)
	path := filepath.Join(s.baseDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("画像ファイルの作成に失敗: %w", err)
	}

	var encodeErr error
	if format == "jpeg" {
		encodeErr = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	} else {
		encodeErr = png.Encode(file, img)
	}

	if closeErr := file.Close(); encodeErr == nil {
		encodeErr = closeErr
	}
	if encodeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("画像のエンコードに失敗: %w", encodeErr)
	}

	return filename, nil
}

// Resolve はファイル名を保存ディレクトリ内のパスに解決する
//
// パストラバーサルは ErrInvalidImagePath、存在しないファイルは
// ErrImageNotFound として区別して返す
func (s *ImageStore) Resolve(filename string) (string, error) {
	// ディレクトリ区切りや相対参照を含む名前は受け付けない
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %s", ErrInvalidImagePath, filename)
	}

	path := filepath.Join(s.baseDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrImageNotFound, filename)
		}
		return "", fmt.Errorf("画像ファイルの確認に失敗: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, filename)
	}

	return path, nil
}

// MediaType はファイル名の拡張子からMIMEタイプを推定する
func MediaType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
