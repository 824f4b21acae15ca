package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// dummyGrabber はハードウェアに触れないプレースホルダーフレーム生成器
type dummyGrabber struct{}

// grab は要求された解像度のプレースホルダーフレームを合成する
func (g *dummyGrabber) grab(_ context.Context, width, height int) (image.Image, error) {
	return generatePlaceholderFrame(width, height), nil
}

// release は何もしない（解放すべきハードウェアがない）
func (g *dummyGrabber) release() error {
	return nil
}

// generatePlaceholderFrame はデモ用のプレースホルダー画像を生成する
//
// ランダムな下地色の上に白い対角ガイド線2本と解像度ラベルを描く
func generatePlaceholderFrame(width, height int) *image.RGBA {
	base := color.RGBA{
		R: uint8(64 + rand.Intn(129)),
		G: uint8(64 + rand.Intn(129)),
		B: uint8(64 + rand.Intn(129)),
		A: 255,
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(base), image.Point{}, draw.Src)

	thickness := width / 80
	if thickness < 1 {
		thickness = 1
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for x := 0; x < width; x++ {
		y := 0
		if width > 1 {
			y = x * (height - 1) / (width - 1)
		}
		// 左上→右下と左下→右上の2本
		drawThickDot(img, x, y, thickness, white)
		drawThickDot(img, x, height-1-y, thickness, white)
	}

	label := fmt.Sprintf("%dx%d", width, height)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(width/10, height/10),
	}
	drawer.DrawString(label)

	return img
}

// drawThickDot は縦方向に太らせた点を描く（対角線の描画用）
func drawThickDot(img *image.RGBA, x, y, thickness int, c color.RGBA) {
	for dy := -thickness / 2; dy <= thickness/2; dy++ {
		yy := y + dy
		if yy < 0 || yy >= img.Bounds().Dy() {
			continue
		}
		img.SetRGBA(x, yy, c)
	}
}
