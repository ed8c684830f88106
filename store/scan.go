package store

import (
	"bytes"
	"context"
	"log/slog"
)

const (
	debugLogRawScans = false
)

// keyRange is an inclusive range of encoded keys. A nil bound is open.
type keyRange struct {
	lower []byte
	upper []byte
}

func (r *keyRange) start(bcur storageCursor, logger *slog.Logger) ([]byte, []byte) {
	var k, v []byte
	if r.lower != nil {
		k, v = bcur.Seek(r.lower)
		if debugLogRawScans {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "SEEK to lower", hexAttr("lower", r.lower), hexAttr("key", k), hexAttr("val", v))
		}
	} else {
		k, v = bcur.First()
		if debugLogRawScans {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "FIRST", hexAttr("key", k), hexAttr("val", v))
		}
	}
	if k != nil && r.match(k, v, logger) {
		return k, v
	}
	return nil, nil
}

func (r *keyRange) next(bcur storageCursor, logger *slog.Logger) ([]byte, []byte) {
	k, v := bcur.Next()
	if debugLogRawScans {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "NEXT", hexAttr("key", k), hexAttr("val", v))
	}
	if k != nil && r.match(k, v, logger) {
		return k, v
	}
	return nil, nil
}

func (r *keyRange) match(k, v []byte, logger *slog.Logger) bool {
	if upper := r.upper; upper != nil && bytes.Compare(k, upper) > 0 {
		if debugLogRawScans {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "BAIL on upper", hexAttr("upper", upper), hexAttr("key", k), hexAttr("val", v))
		}
		return false
	}
	return true
}

// rangeCursor walks a keyRange with a storage cursor.
type rangeCursor struct {
	rang   keyRange
	bcur   storageCursor
	logger *slog.Logger
	k, v   []byte
	init   bool
}

func (c *rangeCursor) Next() bool {
	if c.init {
		c.k, c.v = c.rang.next(c.bcur, c.logger)
	} else {
		c.init = true
		if c.rang.lower != nil && c.rang.upper != nil && bytes.Compare(c.rang.lower, c.rang.upper) > 0 {
			c.k, c.v = nil, nil
		} else {
			c.k, c.v = c.rang.start(c.bcur, c.logger)
		}
	}
	return c.k != nil
}

func (c *rangeCursor) Key() []byte   { return c.k }
func (c *rangeCursor) Value() []byte { return c.v }
