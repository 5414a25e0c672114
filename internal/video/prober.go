// internal/video/prober.go
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// maxFrameBytes bounds the first frame read.
const maxFrameBytes = 8 << 20

// Prober checks that a stream URL delivers at least one frame.
// It is the headless equivalent of a media element's load/error events.
type Prober struct {
	hc      *http.Client
	timeout time.Duration
}

// NewProber creates a prober. A nil hc uses a dedicated http.Client.
func NewProber(hc *http.Client, timeout time.Duration) *Prober {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Prober{hc: hc, timeout: timeout}
}

// Probe opens the stream, reads the first frame and closes it.
// nil means the stream loaded.
func (p *Prober) Probe(ctx context.Context, url string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("video: build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.hc.Do(req)
	if err != nil {
		return fmt.Errorf("video: open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("video: stream HTTP %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		return readFirstPart(resp.Body, params["boundary"])
	}

	// single image or unknown container: any payload byte counts as loaded
	var one [1]byte
	if _, err := io.ReadFull(resp.Body, one[:]); err != nil {
		return fmt.Errorf("video: empty stream: %w", err)
	}
	return nil
}

func readFirstPart(body io.Reader, boundary string) error {
	if boundary == "" {
		return errors.New("video: multipart stream without boundary")
	}

	mr := multipart.NewReader(body, boundary)
	part, err := mr.NextPart()
	if err != nil {
		return fmt.Errorf("video: first frame: %w", err)
	}
	defer part.Close()

	n, err := io.Copy(io.Discard, io.LimitReader(part, maxFrameBytes))
	if err != nil {
		return fmt.Errorf("video: read frame: %w", err)
	}
	if n == 0 {
		return errors.New("video: empty frame")
	}
	return nil
}
