package camera

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
)

// frameGrabber はデバイスのバックエンド（ダミー or ハードウェア）を表す
//
// Device はStart時にどちらか一方を選択して保持する
type frameGrabber interface {
	// grab は新しいフレームを1枚取得する
	grab(ctx context.Context, width, height int) (image.Image, error)

	// release はバックエンドのリソースを解放する
	release() error
}

// Device は1台のカメラデバイスを排他制御付きで所有する
//
// 状態は Stopped ⇔ Started の2値のみで、キャプチャ中という状態は
// 外部から観測できない（キャプチャはロックを保持したまま同期実行される）
type Device struct {
	source       string
	warmupFrames int
	bufferSize   int // 0 は未指定

	mu      sync.Mutex
	started bool
	grabber frameGrabber // Started 中のみ非nil
}

// NewDevice は新しいDeviceを作成する
//
// warmupFrames は負数を0に、bufferSize は1未満を未指定に丸める
func NewDevice(source string, warmupFrames, bufferSize int) *Device {
	if warmupFrames < 0 {
		warmupFrames = 0
	}
	if bufferSize < 1 {
		bufferSize = 0
	}

	return &Device{
		source:       source,
		warmupFrames: warmupFrames,
		bufferSize:   bufferSize,
	}
}

// Source は設定されたソーストークンを返す
func (d *Device) Source() string {
	return d.source
}

// IsDummy はデバイスがダミーモードかを返す
func (d *Device) IsDummy() bool {
	return IsDummySource(d.source)
}

// IsStarted はデバイスが開始済みかを返す
func (d *Device) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Start はカメラデバイスを開く
//
// 既に開始済みの場合は何もしない。ダミーモードではハードウェアに
// 触れず開始済みにする。失敗時は ErrCameraInit を包んだエラーを返す
func (d *Device) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	if IsDummySource(d.source) {
		log.Printf("カメラ '%s' はダミーモードで動作します（ハードウェア初期化をスキップ）", d.source)
		d.grabber = &dummyGrabber{}
		d.started = true
		return nil
	}

	log.Printf("カメラデバイスを開いています: %s", d.source)
	grabber, err := openHardwareGrabber(ctx, d.source, d.bufferSize, d.warmupFrames)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCameraInit, err)
	}

	d.grabber = grabber
	d.started = true
	log.Printf("カメラデバイスの準備ができました: %s", d.source)
	return nil
}

// Stop はカメラデバイスを解放する
//
// 何度呼んでも安全で、未開始の状態で呼んでもエラーにならない
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.grabber != nil {
		log.Printf("カメラソース %s を解放しています", d.source)
		if releaseErr := d.grabber.release(); releaseErr != nil {
			err = fmt.Errorf("カメラ '%s' の解放に失敗: %w", d.source, releaseErr)
		}
		d.grabber = nil
	}
	d.started = false
	return err
}

// CaptureFreshFrame はカメラから新しいフレームを1枚取得する
//
// フレームはキャッシュせず毎回取得する。呼び出し全体がデバイスの
// ロック下で実行されるため、同一デバイスへの並行呼び出しは直列化される。
// 失敗時は ErrCameraCapture を包んだエラーを返す
func (d *Device) CaptureFreshFrame(ctx context.Context, width, height int) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.grabber == nil {
		return nil, fmt.Errorf("%w: カメラが開始されていません", ErrCameraCapture)
	}

	frame, err := d.grabber.grab(ctx, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraCapture, err)
	}

	return frame, nil
}
