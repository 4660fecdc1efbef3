package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/yejunweb/3d-solar-threejs/pkg/math"
)

// ErrUnsupportedFormat is returned for model URLs whose extension no
// decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Loader turns a model URL into a scene graph.
type Loader interface {
	Load(ctx context.Context, url string) (*Node, error)
}

// FileLoader loads models from local paths, file:// and http(s):// URLs.
// Supported formats are .gltf, .glb, .yaml, .yml and .json, optionally
// wrapped in .gz or .zst compression.
type FileLoader struct {
	// Client fetches remote models. nil uses http.DefaultClient.
	Client *http.Client
	// Scale is applied uniformly to the loaded root. Zero means 1.
	Scale float32
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, rawURL string) (*Node, error) {
	name, remote, err := resolve(rawURL)
	if err != nil {
		return nil, err
	}
	format, compression := detect(name)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, rawURL)
	}

	var root *Node
	if !remote && compression == "" && (format == ".gltf" || format == ".glb") {
		// Local glTF may reference sibling buffer files.
		root, err = OpenGLTF(name)
	} else {
		root, err = l.decodeStream(ctx, name, remote, format, compression)
	}
	if err != nil {
		return nil, err
	}

	if l.Scale != 0 && l.Scale != 1 {
		s := root.Transform.Scale
		root.Transform.Scale = math.Vec3{X: s.X * l.Scale, Y: s.Y * l.Scale, Z: s.Z * l.Scale}
		if root.Transform.Matrix != nil {
			m := root.Transform.Matrix.Mul(math.Scale(l.Scale, l.Scale, l.Scale))
			root.Transform.Matrix = &m
		}
	}
	return root, nil
}

func (l *FileLoader) decodeStream(ctx context.Context, name string, remote bool, format, compression string) (*Node, error) {
	rc, err := l.open(ctx, name, remote)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := decompress(rc, compression)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	switch format {
	case ".yaml", ".yml":
		return DecodeYAML(r)
	case ".json":
		return DecodeJSON(r)
	default:
		return DecodeGLTF(r)
	}
}

func (l *FileLoader) open(ctx context.Context, name string, remote bool) (io.ReadCloser, error) {
	if !remote {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open model: %w", err)
		}
		return f, nil
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch model %s: status %s", name, resp.Status)
	}
	return resp.Body, nil
}

// resolve maps a model URL to a local path or remote URL.
func resolve(rawURL string) (name string, remote bool, err error) {
	if rawURL == "" {
		return "", false, errors.New("empty model url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path (a single-letter scheme is a Windows drive).
		return rawURL, false, nil
	}
	switch u.Scheme {
	case "file":
		return u.Path, false, nil
	case "http", "https":
		return rawURL, true, nil
	}
	return "", false, fmt.Errorf("unsupported model url scheme %q", u.Scheme)
}

// detect returns the model format extension and the compression suffix.
func detect(name string) (format, compression string) {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		name = u.Path
	}
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	ext := path.Ext(base)
	if ext == ".gz" || ext == ".zst" {
		compression = ext
		base = strings.TrimSuffix(base, ext)
		ext = path.Ext(base)
	}
	switch ext {
	case ".gltf", ".glb", ".yaml", ".yml", ".json":
		return ext, compression
	}
	return "", compression
}

func decompress(r io.Reader, compression string) (io.ReadCloser, error) {
	switch compression {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip model: %w", err)
		}
		return zr, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd model: %w", err)
		}
		return zr.IOReadCloser(), nil
	}
	return io.NopCloser(r), nil
}

// Compress wraps data in the compression named by suffix (".gz" or
// ".zst"). Used to produce fixtures and cached model copies.
func Compress(data []byte, compression string) ([]byte, error) {
	var buf bytes.Buffer
	switch compression {
	case ".gz":
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case ".zst":
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	return buf.Bytes(), nil
}
