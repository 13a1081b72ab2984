//go:build !darwin && !freebsd && !linux && !windows

package native

import (
	"errors"

	"github.com/John-Robertt/axer/internal/codec"
)

// Library 在不支持动态加载的平台上只是占位。
type Library struct{}

func Load(path string) (*Library, error) {
	return nil, &codec.Error{Op: "load", Lib: path, Err: errors.New("当前平台不支持动态加载")}
}

func (l *Library) Encode(pixels []byte, width, height int, compress bool) ([]byte, []byte, error) {
	return nil, nil, &codec.Error{Op: "encode", Err: errors.New("当前平台不支持动态加载")}
}

func (l *Library) Decode(header, video []byte) ([]byte, int, int, error) {
	return nil, 0, 0, &codec.Error{Op: "decode", Err: errors.New("当前平台不支持动态加载")}
}
