// Package camera カメラデバイスのライフサイクル管理とフレーム取得を担う
//
// # 責務
// - カメラソーストークンの正規化と重複検出
// - 個別カメラデバイスの開始・停止・フレーム取得
// - ダミーモード（ハードウェア不要のプレースホルダー画像生成）
// - メインカメラと追加カメラからなるフリートの構築と管理
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - 設定されたソースからカメラデバイスを構築したい
// - ハードウェアなしの環境でダミーフレームを取得したい
// - 複数カメラの重複した物理デバイス指定を検出したい
//
// # 仕様
// - Device: 1台のカメラを排他制御付きで所有する（開始・停止・キャプチャ）
// - Fleet: メイン1台＋追加0台以上のデバイス集合を構築・停止する
// - ソーストークン: 数値インデックス（"0"）、デバイスパス（"/dev/video0"）、
//   任意文字列のいずれか。"dummy" 等のキーワードはダミーモードになる
// - ハードウェアキャプチャ: GoCV（OpenCV）経由。ウォームアップ読み捨て、
//   リサイズ、BGR→RGB変換を行う
// - Thread-safe な操作をサポート
//
// # 前提要件
//   - OpenCV: ハードウェアモードでのフレーム取得に使用（GoCV経由）
//     ダミーモードのみ使用する場合は不要
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
