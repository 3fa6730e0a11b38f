package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

// DefaultQuality は quality に 0 を渡したときの JPEG 品質です。
const DefaultQuality = 85

// CompressToJPEG はアップロード画像を送信用の JPEG に再エンコードします。
// JPEG は透過を持てないため、透過部分は白で塗りつぶします。
// quality は 1〜100 に丸めます。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	var out bytes.Buffer
	opts := &jpeg.Options{Quality: clampQuality(quality)}
	if err := jpeg.Encode(&out, flatten(src), opts); err != nil {
		return nil, fmt.Errorf("JPEG への変換に失敗しました (source: %s): %w", format, err)
	}
	return out.Bytes(), nil
}

func clampQuality(q int) int {
	switch {
	case q == 0:
		return DefaultQuality
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}

// flatten は不透明な画像はそのまま返し、それ以外は白背景に合成します。
func flatten(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}
