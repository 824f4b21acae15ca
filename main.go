package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"setsuna/internal/config"
	"setsuna/internal/server"
)

func main() {
	// .env があれば読み込む（なければ無視する）
	if err := godotenv.Load(); err == nil {
		log.Println(".env を読み込みました")
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// サーバーを作成
	srv := server.New(cfg)

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを起動
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
