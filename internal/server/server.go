package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"setsuna/internal/camera"
	"setsuna/internal/capture"
	"setsuna/internal/config"
	"setsuna/internal/storage"
)

// imagesPath は画像取得エンドポイントのパス接頭辞
const imagesPath = "/api/images"

// Server はHTTPサーバーとサービスのライフサイクルを管理する構造体
type Server struct {
	config     *config.Config
	engine     *gin.Engine
	httpServer *http.Server

	// Start で構築される
	fleet   *camera.Fleet
	sweeper *storage.Sweeper
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		config: cfg,
		engine: engine,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes(handler *Handler) {
	// ヘルスチェックエンドポイント
	s.engine.GET("/health", handler.HealthCheck)

	// キャプチャエンドポイント
	s.engine.POST("/capture", handler.CaptureImage)

	// 画像配信エンドポイント
	s.engine.GET(imagesPath+"/:filename", handler.FetchImage)
}

// Start はサービス全体を起動し、停止シグナルを受けるまで稼働する
//
// 起動順序: ストア → カメラフリート → 掃除ループ → HTTPサーバー。
// フリートの構築が完了するまでリクエストは受け付けない。
// 停止順序: HTTPドレイン → 掃除ループの停止を待機 → 全カメラ停止
func (s *Server) Start(ctx context.Context) error {
	store, err := storage.NewImageStore(s.config.Camera.StorageDir)
	if err != nil {
		return fmt.Errorf("画像ストアの初期化に失敗: %w", err)
	}

	fleet, err := camera.InitializeFleet(ctx, camera.FleetConfig{
		MainSource:       s.config.Camera.MainSource,
		LegacyMainSource: s.config.Camera.LegacySource,
		ExtraSources:     s.config.Camera.ExtraSources,
		WarmupFrames:     s.config.Camera.WarmupFrames,
		BufferSize:       s.config.Camera.BufferSize,
	})
	if err != nil {
		return fmt.Errorf("カメラフリートの初期化に失敗: %w", err)
	}
	s.fleet = fleet

	coordinator := capture.NewCoordinator(fleet, store, capture.Defaults{
		Resolution: s.config.Camera.DefaultResolution,
		Format:     s.config.Camera.DefaultFormat,
		Quality:    s.config.Camera.DefaultQuality,
	}, imagesPath)

	s.setupRoutes(NewHandler(coordinator, store))

	// 掃除ループを開始
	s.sweeper = storage.NewSweeper(store.Dir(), s.config.Camera.Retention(), s.config.Camera.CleanupInterval())
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	var sweepWG sync.WaitGroup
	sweepWG.Add(1)
	go func() {
		defer sweepWG.Done()
		s.sweeper.Run(sweepCtx)
	}()

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	var startErr error
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		startErr = err
	}

	// グレースフルシャットダウン
	if err := s.Shutdown(); err != nil && startErr == nil {
		startErr = err
	}

	// 掃除ループを止めて完了を待つ
	cancelSweep()
	sweepWG.Wait()

	// 全カメラデバイスを解放する
	if err := s.fleet.Stop(); err != nil {
		log.Printf("カメラフリートの停止に失敗しました: %v", err)
	}

	return startErr
}

// Shutdown はHTTPサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
