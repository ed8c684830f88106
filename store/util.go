package store

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	gora "github.com/renato2099/GoraJython"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &gora.DataError{Data: data, Off: off, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hexstr(b))
}
