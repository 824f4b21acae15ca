package camera

import "errors"

var (
	// ErrCameraInit はカメラデバイスを初期化できない場合のエラー
	ErrCameraInit = errors.New("カメラの初期化に失敗")

	// ErrCameraCapture はカメラから新しいフレームを取得できない場合のエラー
	ErrCameraCapture = errors.New("カメラのキャプチャに失敗")
)
