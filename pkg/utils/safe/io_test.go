package safe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/utils/safe"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return errors.New("already closed")
}

func TestWrite(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	gt.Bool(t, safe.Write(ctx, &buf, []byte("report"))).True()
	gt.Value(t, buf.String()).Equal("report")

	gt.Bool(t, safe.Write(ctx, failingWriter{}, []byte("report"))).False()
	gt.Bool(t, safe.Write(ctx, nil, []byte("report"))).False()
}

func TestClose(t *testing.T) {
	c := &closer{}
	safe.Close(context.Background(), "test", c)
	gt.Bool(t, c.closed).True()

	safe.Close(context.Background(), "nil", nil)
}
