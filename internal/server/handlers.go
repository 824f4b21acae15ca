package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"setsuna/internal/capture"
	"setsuna/internal/storage"
)

// Handler はHTTPエンドポイントの実装を束ねる
type Handler struct {
	coordinator *capture.Coordinator
	store       *storage.ImageStore
}

// NewHandler は新しいHandlerを作成する
func NewHandler(coordinator *capture.Coordinator, store *storage.ImageStore) *Handler {
	return &Handler{
		coordinator: coordinator,
		store:       store,
	}
}

// HealthCheck はヘルスチェックエンドポイントの実装
//
// カメラの状態には依存しない
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "camera",
		Timestamp: time.Now().UTC(),
	})
}

// CaptureImage は画像キャプチャエンドポイントの実装
func (h *Handler) CaptureImage(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		// 空ボディは既定値でのキャプチャとして扱う。それ以外の束縛失敗は入力不正
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "validation_error",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	result, err := h.coordinator.Capture(c.Request.Context(), capture.Request{
		Resolution: req.Resolution,
		Format:     req.Format,
		Quality:    req.Quality,
		UseExtra:   req.UseExtra,
	})
	if err != nil {
		if errors.Is(err, capture.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "validation_error",
				Message:   err.Error(),
				Timestamp: time.Now().UTC(),
			})
			return
		}

		log.Printf("メインカメラのキャプチャに失敗しました: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "capture_failed",
			Message:   "カメラのキャプチャに失敗しました",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	response := CaptureResponse{
		ImageID:        result.ImageID,
		ImageURLOrPath: result.ImageURLOrPath,
		Timestamp:      result.Timestamp,
	}
	for _, item := range result.Images {
		response.Images = append(response.Images, CaptureImageItem{
			Index:          item.Index,
			ImageID:        item.ImageID,
			ImageURLOrPath: item.ImageURLOrPath,
		})
	}

	c.JSON(http.StatusOK, response)
}

// FetchImage は保存済み画像の配信エンドポイントの実装
func (h *Handler) FetchImage(c *gin.Context) {
	filename := c.Param("filename")

	path, err := h.store.Resolve(filename)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidImagePath):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "invalid_image_path",
				Message:   "不正な画像パスが指定されました",
				Timestamp: time.Now().UTC(),
			})
		case errors.Is(err, storage.ErrImageNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:     "image_not_found",
				Message:   "画像が見つかりません",
				Timestamp: time.Now().UTC(),
			})
		default:
			log.Printf("画像の解決に失敗しました: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:     "internal_error",
				Message:   "画像の取得に失敗しました",
				Timestamp: time.Now().UTC(),
			})
		}
		return
	}

	c.Header("Content-Type", storage.MediaType(filename))
	c.File(path)
}
