package config

import (
	"fmt"
	"os"
	"time"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig
	Camera CameraConfig
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string // リッスンするホスト
	Port int    // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration // 読み込みタイムアウト
	WriteTimeout time.Duration // 書き込みタイムアウト
}

// CameraConfig はカメラサービスの設定
type CameraConfig struct {
	StorageDir        string // 画像の保存ディレクトリ
	DefaultResolution string // デフォルト解像度（"<幅>x<高さ>"）
	DefaultFormat     string // デフォルトフォーマット（jpeg | png）
	DefaultQuality    int    // デフォルトJPEG品質（1〜100）

	MainSource   string // メインカメラソース（MAIN_CAMERA_SOURCE）
	LegacySource string // 非推奨の旧ソースキー（CAMERA_SOURCE）
	ExtraSources string // 追加カメラのカンマ区切りソース指定

	RetentionSeconds       int // 画像の保持期間（秒）
	CleanupIntervalSeconds int // 掃除ループの実行間隔（秒）
	WarmupFrames           int // キャプチャ前に読み捨てるフレーム数
	BufferSize             int // 要求するドライババッファ段数
}

// Load は環境変数から設定を読み込む
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Camera: CameraConfig{
			StorageDir:             getEnvOrDefault("CAMERA_STORAGE_DIR", "./data/images"),
			DefaultResolution:      getEnvOrDefault("CAMERA_DEFAULT_RESOLUTION", "320x320"),
			DefaultFormat:          getEnvOrDefault("CAMERA_DEFAULT_FORMAT", "jpeg"),
			DefaultQuality:         getEnvAsIntOrDefault("CAMERA_DEFAULT_QUALITY", 95),
			MainSource:             os.Getenv("MAIN_CAMERA_SOURCE"),
			LegacySource:           os.Getenv("CAMERA_SOURCE"),
			ExtraSources:           os.Getenv("EXTRA_CAMERA_SOURCES"),
			RetentionSeconds:       getEnvAsIntOrDefault("CAMERA_RETENTION_SECONDS", 3600),
			CleanupIntervalSeconds: getEnvAsIntOrDefault("CAMERA_CLEANUP_INTERVAL_SECONDS", 600),
			WarmupFrames:           getEnvAsIntOrDefault("CAMERA_WARMUP_FRAMES", 3),
			BufferSize:             getEnvAsIntOrDefault("CAMERA_BUFFER_SIZE", 1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	if c.Camera.DefaultFormat != "jpeg" && c.Camera.DefaultFormat != "png" {
		return fmt.Errorf("CAMERA_DEFAULT_FORMAT は 'jpeg' か 'png' を指定してください: %s", c.Camera.DefaultFormat)
	}

	if c.Camera.DefaultQuality < 1 || c.Camera.DefaultQuality > 100 {
		return fmt.Errorf("CAMERA_DEFAULT_QUALITY は1〜100の範囲で指定してください: %d", c.Camera.DefaultQuality)
	}

	if c.Camera.RetentionSeconds < 0 {
		return fmt.Errorf("CAMERA_RETENTION_SECONDS は0以上で指定してください: %d", c.Camera.RetentionSeconds)
	}

	if c.Camera.CleanupIntervalSeconds < 1 {
		return fmt.Errorf("CAMERA_CLEANUP_INTERVAL_SECONDS は1以上で指定してください: %d", c.Camera.CleanupIntervalSeconds)
	}

	if c.Camera.WarmupFrames < 0 {
		return fmt.Errorf("CAMERA_WARMUP_FRAMES は0以上で指定してください: %d", c.Camera.WarmupFrames)
	}

	if c.Camera.BufferSize < 1 {
		return fmt.Errorf("CAMERA_BUFFER_SIZE は1以上で指定してください: %d", c.Camera.BufferSize)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Retention は画像の保持期間をDurationで返す
func (c *CameraConfig) Retention() time.Duration {
	return time.Duration(c.RetentionSeconds) * time.Second
}

// CleanupInterval は掃除ループの実行間隔をDurationで返す
func (c *CameraConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
