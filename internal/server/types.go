package server

import "time"

// CaptureRequest は /capture エンドポイントのリクエストボディ
//
// 全フィールドは省略可能で、省略時はサービスの既定値が使われる
type CaptureRequest struct {
	// Resolution は "<幅>x<高さ>" 形式の解像度文字列（例: "1920x1080"）
	Resolution string `json:"resolution,omitempty"`

	// Quality はJPEG品質（1〜100）
	Quality int `json:"quality,omitempty" binding:"omitempty,gte=1,lte=100"`

	// Format は画像フォーマット（"jpeg" | "png"）
	Format string `json:"format,omitempty" binding:"omitempty,oneof=jpeg png"`

	// UseExtra は追加カメラへのファンアウトを要求する
	UseExtra bool `json:"use_extra,omitempty"`
}

// CaptureImageItem はファンアウト時の1ソース分の結果
type CaptureImageItem struct {
	Index          int    `json:"index"`
	ImageID        string `json:"image_id"`
	ImageURLOrPath string `json:"image_url_or_path"`
}

// CaptureResponse は /capture エンドポイントのレスポンスボディ
type CaptureResponse struct {
	ImageID        string             `json:"image_id"`
	ImageURLOrPath string             `json:"image_url_or_path"`
	Timestamp      time.Time          `json:"timestamp"`
	Images         []CaptureImageItem `json:"images,omitempty"`
}

// HealthResponse はヘルスチェックのレスポンスボディ
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse はエラー時の共通レスポンスボディ
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
