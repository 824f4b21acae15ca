package camera

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// FleetConfig はフリート構築に必要な設定値
type FleetConfig struct {
	// MainSource はメインカメラのソーストークン（MAIN_CAMERA_SOURCE）
	MainSource string

	// LegacyMainSource は非推奨の旧設定キーの値（CAMERA_SOURCE）
	// MainSource が未設定の場合のみフォールバックとして使われる
	LegacyMainSource string

	// ExtraSources は追加カメラのカンマ区切りソース指定
	ExtraSources string

	// WarmupFrames はキャプチャ前に読み捨てるフレーム数
	WarmupFrames int

	// BufferSize は要求するドライババッファ段数（0は未指定）
	BufferSize int
}

// Fleet はメイン1台＋追加0台以上の開始済みデバイス集合
//
// リクエストハンドラへは共有状態経由ではなく、この値を明示的に
// 注入して使う（構築→稼働→停止のライフサイクルを持つ）
type Fleet struct {
	primary     *Device
	secondaries []*Device
}

// NewFleet は開始済みデバイスからFleetを組み立てる
func NewFleet(primary *Device, secondaries []*Device) *Fleet {
	return &Fleet{
		primary:     primary,
		secondaries: secondaries,
	}
}

// Primary はメインカメラデバイスを返す
func (f *Fleet) Primary() *Device {
	return f.primary
}

// Secondaries は生き残った追加カメラデバイスを設定順で返す
func (f *Fleet) Secondaries() []*Device {
	return f.secondaries
}

// Stop は全デバイスを停止する
func (f *Fleet) Stop() error {
	var stopErrors []error

	if f.primary != nil {
		if err := f.primary.Stop(); err != nil {
			stopErrors = append(stopErrors, err)
		}
	}
	for _, device := range f.secondaries {
		if err := device.Stop(); err != nil {
			stopErrors = append(stopErrors, err)
		}
	}

	if len(stopErrors) > 0 {
		return fmt.Errorf("一部のカメラ停止に失敗: %v", stopErrors)
	}
	return nil
}

// deviceStarter はデバイスの構築と開始を差し替え可能にする（テスト用）
type deviceStarter func(ctx context.Context, source string, warmupFrames, bufferSize int) (*Device, error)

// startDevice はデバイスを構築して開始する標準実装
func startDevice(ctx context.Context, source string, warmupFrames, bufferSize int) (*Device, error) {
	device := NewDevice(source, warmupFrames, bufferSize)
	if err := device.Start(ctx); err != nil {
		return nil, err
	}
	return device, nil
}

// InitializeFleet は設定からカメラフリートを構築して開始する
//
// メインカメラの開始失敗は致命的エラーとして返す。追加カメラの
// 開始失敗は警告ログを出してそのカメラを除外する（順序は保持）。
// メインと等価なソースを持つ追加カメラがある場合は、どのデバイスも
// 開く前に致命的エラーを返す
func InitializeFleet(ctx context.Context, cfg FleetConfig) (*Fleet, error) {
	return initializeFleet(ctx, cfg, startDevice)
}

func initializeFleet(ctx context.Context, cfg FleetConfig, start deviceStarter) (*Fleet, error) {
	mainSource, err := resolveMainSource(cfg.MainSource, cfg.LegacyMainSource)
	if err != nil {
		return nil, err
	}

	extraSources := ParseExtraSources(cfg.ExtraSources)

	// デバイスを開く前に重複した物理デバイス指定を検出する
	mainKeys := SourceEquivalenceKeys(mainSource)
	for _, extra := range extraSources {
		if sourceKeysIntersect(mainKeys, SourceEquivalenceKeys(extra)) {
			return nil, fmt.Errorf("追加カメラソース '%s' はメインカメラソース '%s' と同一のデバイスを指しています", extra, mainSource)
		}
	}

	primary, err := start(ctx, mainSource, cfg.WarmupFrames, cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("メインカメラの初期化に失敗 (ソース: %s): %w", mainSource, err)
	}

	var secondaries []*Device
	for _, extra := range extraSources {
		device, err := start(ctx, extra, cfg.WarmupFrames, cfg.BufferSize)
		if err != nil {
			log.Printf("追加カメラソース '%s' の初期化に失敗したため除外します: %v", extra, err)
			continue
		}
		secondaries = append(secondaries, device)
	}

	return NewFleet(primary, secondaries), nil
}

// resolveMainSource はメインカメラソースを優先順位付きで解決する
//
// 優先順位: MAIN_CAMERA_SOURCE → 非推奨の CAMERA_SOURCE（警告付き）→ エラー
func resolveMainSource(mainSource, legacySource string) (string, error) {
	if token := strings.TrimSpace(mainSource); token != "" {
		return token, nil
	}

	if token := strings.TrimSpace(legacySource); token != "" {
		log.Printf("非推奨の設定キー CAMERA_SOURCE を使用しています。MAIN_CAMERA_SOURCE への移行を推奨します")
		return token, nil
	}

	return "", fmt.Errorf("メインカメラソースが設定されていません（MAIN_CAMERA_SOURCE を設定してください）")
}
