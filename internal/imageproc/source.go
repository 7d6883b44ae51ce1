package imageproc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-retryablehttp"
	_ "golang.org/x/image/webp" // регистрируем webp-декодер для image.Decode
)

// DefaultMIME is assumed for bare base64 payloads without a data-URI prefix.
const DefaultMIME = model.PNG

const defaultMaxBytes = 20 << 20

// MaxPixels bounds width*height of any decoded image, the header is checked before pixels are allocated.
const MaxPixels = 40_000_000

var errBlockedHost = errors.New("host resolves to a private or loopback address")

// Loader resolves image references: data URIs, http(s) URLs and bare base64 payloads.
type Loader struct {
	http         *retryablehttp.Client
	maxBytes     int64
	allowPrivate bool
}

type LoaderOption func(*Loader)

// WithPrivateHosts lets the loader fetch from loopback and private networks (local MinIO, tests).
func WithPrivateHosts() LoaderOption {
	return func(l *Loader) { l.allowPrivate = true }
}

func NewLoader(timeout time.Duration, maxBytes int64, opts ...LoaderOption) *Loader {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	l := &Loader{maxBytes: maxBytes}
	for _, opt := range opts {
		opt(l)
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	if !l.allowPrivate {
		// проверяем уже разрезолвленный адрес, так что редиректы и DNS-трюки тоже режутся
		if tr, ok := rc.HTTPClient.Transport.(*http.Transport); ok {
			dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second, Control: denyPrivate}
			tr.DialContext = dialer.DialContext
			tr.Proxy = nil
		}
		rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if errors.Is(err, errBlockedHost) {
				return false, err
			}
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
	}

	l.http = rc
	return l
}

func denyPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: %s", errBlockedHost, host)
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() || ip.IsMulticast() {
		return fmt.Errorf("%w: %s", errBlockedHost, ip)
	}
	return nil
}

// Load returns raw bytes of the referenced image and its MIME type.
func (l *Loader) Load(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", fmt.Errorf("%w: empty reference", model.ErrImageLoad)
	}

	switch {
	case strings.HasPrefix(ref, "data:"):
		data, mime, err := ParseDataURI(ref)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", model.ErrImageLoad, err)
		}
		if int64(len(data)) > l.maxBytes {
			return nil, "", fmt.Errorf("%w: data URI exceeds %d bytes", model.ErrImageLoad, l.maxBytes)
		}
		return data, mime, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	default:
		data, err := decodeBase64(ref)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bare payload is not base64: %v", model.ErrImageLoad, err)
		}
		if int64(len(data)) > l.maxBytes {
			return nil, "", fmt.Errorf("%w: payload exceeds %d bytes", model.ErrImageLoad, l.maxBytes)
		}
		return data, DefaultMIME, nil
	}
}

// Decode loads the reference and decodes it into an image.
func (l *Loader) Decode(ctx context.Context, ref string) (image.Image, error) {
	data, _, err := l.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad url: %v", model.ErrImageLoad, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetch %s: %w", model.ErrImageLoad, redact(ref), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("%w: fetch %s: status %d", model.ErrImageLoad, redact(ref), resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", model.ErrImageLoad, redact(ref), err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", model.ErrImageLoad, redact(ref), l.maxBytes)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// DecodeBytes decodes any registered raster format, honoring EXIF orientation.
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", model.ErrImageLoad)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrImageLoad, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", model.ErrImageLoad)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", model.ErrImageLoad, cfg.Width, cfg.Height, MaxPixels)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrImageLoad, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", model.ErrImageLoad)
	}
	return img, nil
}

// ParseDataURI splits "data:<mime>[;base64],<payload>".
func ParseDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("data URI without payload")
	}

	isBase64 := false
	mime := ""
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0:
			mime = strings.TrimSpace(part)
		case part == "base64":
			isBase64 = true
		}
	}
	if mime == "" {
		mime = DefaultMIME
	}

	if !isBase64 {
		raw, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("bad data URI payload: %w", err)
		}
		return []byte(raw), mime, nil
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, "", fmt.Errorf("bad data URI payload: %w", err)
	}
	return data, mime, nil
}

// DataURI encodes bytes as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	// url-safe и без паддинга тоже встречаются
	if data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// redact drops the query string, presigned URLs carry credentials there.
func redact(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
