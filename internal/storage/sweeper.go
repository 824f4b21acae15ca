package storage

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Sweeper は保持期限を過ぎた画像ファイルを定期的に削除する
//
// 保存ディレクトリ直下のファイルのみを対象とする（再帰しない）。
// 書き込まれたファイルの削除はこのSweeperだけが行う
type Sweeper struct {
	dir       string
	retention time.Duration
	interval  time.Duration
}

// NewSweeper は新しいSweeperを作成する
func NewSweeper(dir string, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		dir:       dir,
		retention: retention,
		interval:  interval,
	}
}

// Run はコンテキストがキャンセルされるまで定期的に掃除を実行する
//
// 1回の掃除の失敗はログに記録して次の周期へ続行する。
// このループ自体が静かに死ぬことはない
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		deleted, err := s.SweepOnce(time.Now())
		if err != nil {
			log.Printf("画像の掃除に失敗しました: %v", err)
		} else if deleted > 0 {
			log.Printf("期限切れの画像を削除しました: %d件", deleted)
		}

		select {
		case <-ctx.Done():
			log.Println("画像掃除ループを停止します")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce は1回分の掃除を実行し、削除したファイル数を返す
//
// 最終更新時刻が now - retention より厳密に古いファイルを削除する。
// 個別ファイルの削除失敗はログに記録して処理を続行する
func (s *Sweeper) SweepOnce(now time.Time) (int, error) {
	cutoff := now.Add(-s.retention)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Printf("ファイル情報の取得に失敗: %s: %v", path, err)
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			log.Printf("期限切れ画像の削除に失敗: %s: %v", path, err)
			continue
		}
		deleted++
	}

	return deleted, nil
}
