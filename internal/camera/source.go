package camera

import (
	"fmt"
	"strconv"
	"strings"
)

// devicePathPrefix はLinuxのビデオデバイスパスの接頭辞
const devicePathPrefix = "/dev/video"

// dummySources はダミーモードとして扱うソーストークンの集合
var dummySources = map[string]struct{}{
	"":            {},
	"dummy":       {},
	"simulator":   {},
	"placeholder": {},
}

// NormalizeSource はソーストークンを正規化キーに変換する
//
// 数値トークンは "index:<n>"、デバイスパスは "dev:<小文字パス>"、
// それ以外は "raw:<トークン>" になる
func NormalizeSource(source string) string {
	token := strings.TrimSpace(source)
	tokenLower := strings.ToLower(token)

	if n, ok := parseDigits(token); ok {
		return fmt.Sprintf("index:%d", n)
	}
	if strings.HasPrefix(tokenLower, devicePathPrefix) {
		return "dev:" + tokenLower
	}
	return "raw:" + token
}

// SourceEquivalenceKeys は重複検出に使う等価キー集合を返す
//
// "0" と "/dev/video0" のような同一デバイスの別表記を
// 双方向に展開して衝突判定できるようにする
func SourceEquivalenceKeys(source string) map[string]struct{} {
	token := strings.TrimSpace(source)
	tokenLower := strings.ToLower(token)

	keys := map[string]struct{}{
		NormalizeSource(token): {},
	}

	if n, ok := parseDigits(token); ok {
		keys[fmt.Sprintf("index:%d", n)] = struct{}{}
		keys[fmt.Sprintf("dev:%s%d", devicePathPrefix, n)] = struct{}{}
		return keys
	}

	if strings.HasPrefix(tokenLower, devicePathPrefix) {
		suffix := tokenLower[len(devicePathPrefix):]
		if n, ok := parseDigits(suffix); ok {
			keys[fmt.Sprintf("index:%d", n)] = struct{}{}
			keys[fmt.Sprintf("dev:%s%d", devicePathPrefix, n)] = struct{}{}
		}
	}

	return keys
}

// sourceKeysIntersect は2つの等価キー集合が交差するかを判定する
func sourceKeysIntersect(a, b map[string]struct{}) bool {
	for key := range a {
		if _, ok := b[key]; ok {
			return true
		}
	}
	return false
}

// IsDummySource はトークンがダミーモード指定かを判定する
func IsDummySource(source string) bool {
	token := strings.ToLower(strings.TrimSpace(source))
	_, ok := dummySources[token]
	return ok
}

// ParseExtraSources はカンマ区切りの追加ソース指定をトークン一覧に分解する
//
// 各要素は前後の空白を除去し、空の要素は捨てる。順序は保持する
func ParseExtraSources(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var sources []string
	for _, piece := range strings.Split(raw, ",") {
		token := strings.TrimSpace(piece)
		if token != "" {
			sources = append(sources, token)
		}
	}
	return sources
}

// ParseResolution は "<幅>x<高さ>" 形式の解像度文字列を解析する
func ParseResolution(resolution string) (int, int, error) {
	token := strings.ToLower(strings.TrimSpace(resolution))
	if token == "" {
		return 0, 0, fmt.Errorf("解像度が指定されていません")
	}

	parts := strings.Split(token, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("解像度は '<幅>x<高さ>' 形式で指定してください: %s", resolution)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("解像度の幅が整数ではありません: %s", resolution)
	}

	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("解像度の高さが整数ではありません: %s", resolution)
	}

	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("解像度は正の整数で指定してください: %s", resolution)
	}

	return width, height, nil
}

// parseDigits はトークンが数字のみで構成される場合に整数値を返す
func parseDigits(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}
