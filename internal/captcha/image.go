package captcha

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Размеры итоговой картинки challenge
const (
	imageWidth  = 120
	imageHeight = 40
	noiseLines  = 20
)

// RenderPNG растеризует код challenge в PNG-картинку: белый фон,
// серые линии-помехи, синие символы. Клиент получает ее в теле
// ответа GET /api/auth/captcha.
func RenderPNG(code string) ([]byte, error) {
	// Рисуем текст мелким шрифтом и масштабируем вдвое:
	// basicfont дает глифы 7x13, в исходном размере они нечитаемы
	small := image.NewRGBA(image.Rect(0, 0, imageWidth/2, imageHeight/2))
	xdraw.Draw(small, small.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	drawer := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{B: 255, A: 255}),
		Face: basicfont.Face7x13,
	}

	for i, r := range code {
		drawer.Dot = fixed.P(6+13*i, 14)
		drawer.DrawString(string(r))
	}

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	xdraw.NearestNeighbor.Scale(img, img.Bounds(), small, small.Bounds(), xdraw.Src, nil)

	// Линии-помехи поверх текста
	gray := color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 255}
	for i := 0; i < noiseLines; i++ {
		drawLine(img,
			rand.Intn(imageWidth), rand.Intn(imageHeight),
			rand.Intn(imageWidth), rand.Intn(imageHeight),
			gray)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode captcha image: %w", err)
	}

	return buf.Bytes(), nil
}

// drawLine рисует отрезок по алгоритму Брезенхэма
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
