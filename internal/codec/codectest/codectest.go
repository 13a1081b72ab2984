// Package codectest 提供确定性的内存 codec 实现，测试用。
//
// 纹理头布局（52 字节）：
//
//	[4:8]   宽度（大端 u32）
//	[8:12]  高度（大端 u32）
//	[12]    压缩标记
//	[48:52] 按尺寸推导的格式签名
//
// 视频数据为 BGRA8 原始像素（ARGB8 输入逐像素反转字节序），
// Encode/Decode 严格互逆。
package codectest

import (
	"encoding/binary"
	"errors"

	"github.com/John-Robertt/axer/internal/codec"
	"github.com/John-Robertt/axer/internal/domain"
)

const headerSize = 52

// 尺寸到格式签名的映射，模拟原生库按纹理规格选择 GPU 格式的行为。
var sigByDims = map[[2]int]domain.Signature{
	{64, 64}:    domain.SigIcon,
	{420, 96}:   domain.SigBanner,
	{900, 600}:  domain.SigBoxart,
	{1280, 720}: domain.SigBackground,
	{1000, 562}: domain.SigScreenshot,
}

// Codec 实现 codec.Codec。零值可用。
type Codec struct{}

func (Codec) Encode(pixels []byte, width, height int, compress bool) ([]byte, []byte, error) {
	if len(pixels) != width*height*4 {
		return nil, nil, &codec.Error{Op: "encode", Err: errors.New("像素长度与尺寸不符")}
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[4:8], uint32(width))
	binary.BigEndian.PutUint32(header[8:12], uint32(height))
	if compress {
		header[12] = 1
	}
	sig := sigByDims[[2]int{width, height}]
	copy(header[headerSize-4:], sig[:])

	// ARGB 逐像素反转字节序即 BGRA。
	video := make([]byte, len(pixels))
	for i := 0; i < len(pixels); i += 4 {
		video[i] = pixels[i+3]
		video[i+1] = pixels[i+2]
		video[i+2] = pixels[i+1]
		video[i+3] = pixels[i]
	}
	return header, video, nil
}

func (Codec) Decode(header, video []byte) ([]byte, int, int, error) {
	if len(header) != headerSize {
		return nil, 0, 0, &codec.Error{Op: "decode", Err: errors.New("纹理头长度不符")}
	}
	width := int(binary.BigEndian.Uint32(header[4:8]))
	height := int(binary.BigEndian.Uint32(header[8:12]))
	if len(video) != width*height*4 {
		return nil, 0, 0, &codec.Error{Op: "decode", Err: errors.New("视频数据长度与尺寸不符")}
	}
	pixels := make([]byte, len(video))
	copy(pixels, video)
	return pixels, width, height, nil
}
