package inference

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// InputSize is the square edge, in pixels, the classifier expects.
const InputSize = 224

// Tensor is an image in height, width, channel order with RGB values
// scaled to [0, 1].
type Tensor [][][]float32

// DecodeImage reads a JPEG or PNG image.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Preprocess resizes img to size x size with bilinear filtering and
// normalizes every channel by 255. Transparent areas are composed over white.
func Preprocess(img image.Image, size int) Tensor {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	t := make(Tensor, size)
	for y := 0; y < size; y++ {
		row := make([][]float32, size)
		for x := 0; x < size; x++ {
			i := dst.PixOffset(x, y)
			row[x] = []float32{
				float32(dst.Pix[i]) / 255,
				float32(dst.Pix[i+1]) / 255,
				float32(dst.Pix[i+2]) / 255,
			}
		}
		t[y] = row
	}
	return t
}
