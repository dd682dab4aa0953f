package prodanswer

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

type decodedBody struct {
	io.Reader
	closers []func() error
}

func (b *decodedBody) Close() error {
	var first error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decodeBody unwraps the response body according to its Content-Encoding.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	switch encoding {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip response: %w", err)
		}
		return &decodedBody{Reader: reader, closers: []func() error{reader.Close, resp.Body.Close}}, nil
	case "deflate":
		reader, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("deflate response: %w", err)
		}
		return &decodedBody{Reader: reader, closers: []func() error{reader.Close, resp.Body.Close}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(resp.Body), closers: []func() error{resp.Body.Close}}, nil
	case "zstd":
		decoder, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd response: %w", err)
		}
		closeDecoder := func() error {
			decoder.Close()
			return nil
		}
		return &decodedBody{Reader: decoder, closers: []func() error{closeDecoder, resp.Body.Close}}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
