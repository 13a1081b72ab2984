package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	_ "image/jpeg" // 注册 JPEG 解码器（folder 发现允许 jpg 输入）

	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

// LoadARGB 读取并解码图片文件，输出 ARGB8 原始像素。
//
// 约束：
// - 输入允许是 PNG/JPEG/WebP（依赖注册的解码器）
// - autoResize 为真且尺寸不符时，先用 Catmull-Rom 重采样到 width×height
// - 输出字节序为每像素 [A, R, G, B]，行优先，与编解码库的输入约定一致
func LoadARGB(path string, width, height int, autoResize bool) ([]byte, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("解码图片 %q 失败：%w", path, err)
	}
	return ARGBFrom(img, width, height, autoResize)
}

// ARGBFrom 同 LoadARGB，但直接接收已解码图片。
func ARGBFrom(img image.Image, width, height int, autoResize bool) ([]byte, int, int, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, 0, 0, errors.New("图片尺寸无效")
	}

	if autoResize && (b.Dx() != width || b.Dy() != height) {
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
		b = dst.Bounds()
	}

	// 统一搬到零原点的 NRGBA 再做通道重排，避免逐像素接口调用。
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		tmp := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(tmp, tmp.Bounds(), img, b.Min, xdraw.Src)
		nrgba = tmp
	}

	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for i := 0; i < len(out); i += 4 {
		out[i] = nrgba.Pix[i+3]
		out[i+1] = nrgba.Pix[i]
		out[i+2] = nrgba.Pix[i+1]
		out[i+3] = nrgba.Pix[i+2]
	}
	return out, w, h, nil
}

// PNGFromBGRA 把编解码库输出的 BGRA8 像素编码为 PNG。
func PNGFromBGRA(pixels []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("BGRA 像素长度与尺寸不符：len=%d，期望 %d×%d×4", len(pixels), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(pixels); i += 4 {
		img.Pix[i] = pixels[i+2]
		img.Pix[i+1] = pixels[i+1]
		img.Pix[i+2] = pixels[i]
		img.Pix[i+3] = pixels[i+3]
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
