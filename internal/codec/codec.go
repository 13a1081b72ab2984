package codec

import (
	"errors"
	"fmt"
)

// Codec 把像素数据与纹理条目互转，封装不透明的原生编解码实现。
//
// 约束：
// - Encode 输入为 ARGB8 像素（每像素 4 字节，行优先），尺寸由调用方保证
// - Decode 输出为 BGRA8 像素；压缩位流的格式对调用方完全不透明
// - 两个方向都不做缩放、不做通道重排之外的任何图像处理
type Codec interface {
	Encode(pixels []byte, width, height int, compress bool) (header, video []byte, err error)
	Decode(header, video []byte) (pixels []byte, width, height int, err error)
}

// ErrRejected 原生库返回了非成功结果码。
var ErrRejected = errors.New("codec: conversion rejected")

// Error 标记编解码调用失败的环节。
type Error struct {
	// Op: "load" / "encode" / "decode"
	Op string
	// Lib 动态库路径，load 之外可为空。
	Lib string
	Err error
}

func (e *Error) Error() string {
	if e.Lib != "" {
		return fmt.Sprintf("codec %s（%s）：%v", e.Op, e.Lib, e.Err)
	}
	return fmt.Sprintf("codec %s：%v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
