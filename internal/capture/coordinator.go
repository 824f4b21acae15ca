// Package capture リクエスト単位のキャプチャ実行と結果の組み立てを担う
package capture

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"setsuna/internal/camera"
)

// ErrValidation はリクエスト入力が不正な場合のエラー
//
// デバイスに触れる前に検出され、クライアント側の問題として報告される
var ErrValidation = errors.New("リクエスト入力が不正")

// Store は画像の永続化先を表す
type Store interface {
	Save(img image.Image, imageID, format string, quality int) (string, error)
}

// Defaults はリクエストで省略された値に適用するサービス既定値
type Defaults struct {
	Resolution string
	Format     string
	Quality    int
}

// Request はキャプチャ要求。ゼロ値のフィールドは既定値で補われる
type Request struct {
	Resolution string
	Format     string
	Quality    int
	UseExtra   bool
}

// Item は1ソース分のキャプチャ結果
//
// インデックスはメインが常に0、追加カメラは設定順で1から振られる
type Item struct {
	Index          int
	ImageID        string
	ImageURLOrPath string
}

// Result はキャプチャ要求全体の結果
//
// トップレベルの値はメインカメラの結果を映す。Images はファンアウトが
// 要求された場合のみ設定される
type Result struct {
	ImageID        string
	ImageURLOrPath string
	Timestamp      time.Time
	Images         []Item
}

// Coordinator はフリートとストアを束ねてキャプチャ要求を処理する
type Coordinator struct {
	fleet      *camera.Fleet
	store      Store
	defaults   Defaults
	imagesPath string
}

// NewCoordinator は新しいCoordinatorを作成する
//
// imagesPath は応答に含める画像取得パスの接頭辞（例: "/api/images"）
func NewCoordinator(fleet *camera.Fleet, store Store, defaults Defaults, imagesPath string) *Coordinator {
	return &Coordinator{
		fleet:      fleet,
		store:      store,
		defaults:   defaults,
		imagesPath: imagesPath,
	}
}

// Capture はキャプチャ要求を実行する
//
// メインカメラのキャプチャ失敗はリクエスト全体の失敗になる。
// ファンアウト時の追加カメラの失敗はログに記録して結果から除くだけで、
// リクエスト全体は成功のまま返す
func (c *Coordinator) Capture(ctx context.Context, req Request) (*Result, error) {
	width, height, format, quality, err := c.resolveParams(req)
	if err != nil {
		return nil, err
	}

	log.Printf("キャプチャ要求を処理します: 解像度=%dx%d フォーマット=%s 品質=%d ファンアウト=%v",
		width, height, format, quality, req.UseExtra)

	primaryItem, err := c.captureAndStore(ctx, c.fleet.Primary(), width, height, format, quality)
	if err != nil {
		return nil, fmt.Errorf("メインカメラのキャプチャに失敗: %w", err)
	}

	result := &Result{
		ImageID:        primaryItem.ImageID,
		ImageURLOrPath: primaryItem.ImageURLOrPath,
		Timestamp:      time.Now().UTC(),
	}

	if !req.UseExtra {
		return result, nil
	}

	secondaries := c.fleet.Secondaries()

	// 追加カメラは互いに独立したリソースなので並行にキャプチャする。
	// 応答のインデックスは完了順ではなく設定順で決まる
	captured := make([]*Item, len(secondaries))
	var wg sync.WaitGroup
	for i, device := range secondaries {
		wg.Add(1)
		go func(slot int, device *camera.Device) {
			defer wg.Done()
			item, err := c.captureAndStore(ctx, device, width, height, format, quality)
			if err != nil {
				log.Printf("追加カメラ '%s' のキャプチャに失敗したため結果から除外します: %v", device.Source(), err)
				return
			}
			captured[slot] = item
		}(i, device)
	}
	wg.Wait()

	images := []Item{*primaryItem}
	for _, item := range captured {
		if item == nil {
			continue
		}
		item.Index = len(images)
		images = append(images, *item)
	}
	result.Images = images

	return result, nil
}

// resolveParams は要求値と既定値から実効パラメータを解決して検証する
func (c *Coordinator) resolveParams(req Request) (width, height int, format string, quality int, err error) {
	resolution := req.Resolution
	if resolution == "" {
		resolution = c.defaults.Resolution
	}
	format = req.Format
	if format == "" {
		format = c.defaults.Format
	}
	quality = req.Quality
	if quality == 0 {
		quality = c.defaults.Quality
	}

	width, height, parseErr := camera.ParseResolution(resolution)
	if parseErr != nil {
		return 0, 0, "", 0, fmt.Errorf("%w: %v", ErrValidation, parseErr)
	}

	if format != "jpeg" && format != "png" {
		return 0, 0, "", 0, fmt.Errorf("%w: フォーマットは 'jpeg' か 'png' を指定してください", ErrValidation)
	}

	if quality < 1 || quality > 100 {
		return 0, 0, "", 0, fmt.Errorf("%w: 品質は1〜100の範囲で指定してください", ErrValidation)
	}

	return width, height, format, quality, nil
}

// captureAndStore は1台のデバイスからキャプチャして永続化する
//
// 画像IDはファイル書き込みの前に採番される（採番は失敗しない）
func (c *Coordinator) captureAndStore(ctx context.Context, device *camera.Device, width, height int, format string, quality int) (*Item, error) {
	frame, err := device.CaptureFreshFrame(ctx, width, height)
	if err != nil {
		return nil, err
	}

	imageID := newImageID()
	filename, err := c.store.Save(frame, imageID, format, quality)
	if err != nil {
		return nil, err
	}

	log.Printf("キャプチャ画像を保存しました: %s", filename)
	return &Item{
		ImageID:        imageID,
		ImageURLOrPath: c.imagesPath + "/" + filename,
	}, nil
}

// newImageID はグローバルに一意な32桁の16進画像IDを生成する
func newImageID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
