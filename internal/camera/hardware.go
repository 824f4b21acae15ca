package camera

import (
	"context"
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"
)

// hardwareGrabber はGoCV（OpenCV）経由でカメラデバイスからフレームを取得する
type hardwareGrabber struct {
	source       string
	capture      *gocv.VideoCapture
	warmupFrames int
}

// openHardwareGrabber はカメラデバイスを開いて設定を適用する
func openHardwareGrabber(_ context.Context, source string, bufferSize, warmupFrames int) (*hardwareGrabber, error) {
	capture, err := gocv.OpenVideoCapture(resolveCaptureSource(source))
	if err != nil {
		return nil, fmt.Errorf("カメラソース '%s' を開けません: %w", source, err)
	}

	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("カメラソース '%s' を開けません", source)
	}

	if bufferSize > 0 {
		// 古いフレームの滞留を減らすためのヒント。適用できなくても致命的ではない
		capture.Set(gocv.VideoCaptureBufferSize, float64(bufferSize))
		if got := int(capture.Get(gocv.VideoCaptureBufferSize)); got != bufferSize {
			log.Printf("カメラのバッファサイズを設定できませんでした: 要求=%d 実際=%d", bufferSize, got)
		}
	}

	return &hardwareGrabber{
		source:       source,
		capture:      capture,
		warmupFrames: warmupFrames,
	}, nil
}

// resolveCaptureSource は設定されたソースをOpenCV互換の値に解釈する
//
// 数値トークンは整数インデックス、それ以外は文字列のまま渡す
func resolveCaptureSource(source string) interface{} {
	if n, ok := parseDigits(source); ok {
		return n
	}
	return source
}

// grab はウォームアップ読み捨て後に1フレームを取得し、RGBに変換して返す
//
// カメラはアイドル後の最初の読み取りで古いバッファフレームを返すことが
// 多いため、warmupFrames 枚を読み捨ててから本読み取りを行う
func (g *hardwareGrabber) grab(ctx context.Context, width, height int) (image.Image, error) {
	for i := 0; i < g.warmupFrames; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		g.capture.Grab(1)
	}

	mat := gocv.NewMat()
	defer func() {
		_ = mat.Close()
	}()

	if ok := g.capture.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("カメラ '%s' からフレームを読み取れません", g.source)
	}

	src := mat
	if mat.Cols() != width || mat.Rows() != height {
		resized := gocv.NewMat()
		defer func() {
			_ = resized.Close()
		}()
		gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		src = resized
	}

	// ToImage がデバイスネイティブのBGR並びをRGBに変換する
	frame, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("フレームの変換に失敗: %w", err)
	}

	return frame, nil
}

// release はカメラデバイスを解放する
func (g *hardwareGrabber) release() error {
	return g.capture.Close()
}
