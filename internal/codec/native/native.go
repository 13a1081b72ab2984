//go:build darwin || freebsd || linux || windows

// Package native 通过动态加载原生纹理库实现 codec.Codec。
// 库导出两个 C 函数：
//
//	int ConvertImageToAsset(imageData, imageDataLen, width, height,
//	                        useCompression, headerData, *headerDataLen,
//	                        videoData, *videoDataLen)
//	int ConvertAssetToImage(headerData, headerDataLen, videoData,
//	                        videoDataLen, imageData, *imageDataLen,
//	                        *width, *height)
//
// 返回值 1 表示成功。ConvertImageToAsset 采用两段调用：首次传空缓冲
// 区只取尺寸，第二次填充数据。
package native

import (
	"github.com/ebitengine/purego"

	"github.com/John-Robertt/axer/internal/codec"
)

// 解码输出缓冲区上限：已知最大纹理 1280×720×4 字节，取 4 MiB 封顶。
const maxImageBytes = 4 << 20

// Library 是已加载的原生编解码库。并发调用是否安全取决于库本身，
// 调用方应按单线程使用或自行串行化。
type Library struct {
	path string

	convertImageToAsset func(imageData []byte, imageDataLen, width, height, useCompression int32,
		headerData []byte, headerDataLen *int32,
		videoData []byte, videoDataLen *int32) int32
	convertAssetToImage func(headerData []byte, headerDataLen int32,
		videoData []byte, videoDataLen int32,
		imageData []byte, imageDataLen, width, height *int32) int32
}

// Load 打开 path 指向的动态库并绑定导出函数。
func Load(path string) (*Library, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, &codec.Error{Op: "load", Lib: path, Err: err}
	}

	l := &Library{path: path}
	purego.RegisterLibFunc(&l.convertImageToAsset, handle, "ConvertImageToAsset")
	purego.RegisterLibFunc(&l.convertAssetToImage, handle, "ConvertAssetToImage")
	return l, nil
}

func (l *Library) Encode(pixels []byte, width, height int, compress bool) ([]byte, []byte, error) {
	var use int32
	if compress {
		use = 1
	}

	// 首次调用只探测输出尺寸。
	var headerLen, videoLen int32
	r := l.convertImageToAsset(pixels, int32(len(pixels)), int32(width), int32(height), use,
		nil, &headerLen, nil, &videoLen)
	if r != 1 {
		return nil, nil, &codec.Error{Op: "encode", Lib: l.path, Err: codec.ErrRejected}
	}

	header := make([]byte, headerLen)
	video := make([]byte, videoLen)
	r = l.convertImageToAsset(pixels, int32(len(pixels)), int32(width), int32(height), use,
		header, &headerLen, video, &videoLen)
	if r != 1 {
		return nil, nil, &codec.Error{Op: "encode", Lib: l.path, Err: codec.ErrRejected}
	}
	return header[:headerLen], video[:videoLen], nil
}

func (l *Library) Decode(header, video []byte) ([]byte, int, int, error) {
	image := make([]byte, maxImageBytes)
	var imageLen, width, height int32
	r := l.convertAssetToImage(header, int32(len(header)), video, int32(len(video)),
		image, &imageLen, &width, &height)
	if r != 1 {
		return nil, 0, 0, &codec.Error{Op: "decode", Lib: l.path, Err: codec.ErrRejected}
	}
	return image[:imageLen], int(width), int(height), nil
}
