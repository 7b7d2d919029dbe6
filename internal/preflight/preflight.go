// Package preflight rejects sources that exceed configured input limits
// before they reach the engine.
package preflight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/logger"
)

// Messages shown to callers when a limit is hit.
const (
	MsgTooLarge    = "file exceeds maximum size"
	MsgTooManyPage = "document exceeds maximum page count"
)

var pdfMagic = []byte("%PDF-")

// Inspector checks size and page limits. Zero limits disable the check.
// URL sources are not fetched here; the engine enforces its own limits.
type Inspector struct {
	maxBytes int64
	maxPages int
}

// New creates an Inspector. maxBytes and maxPages <= 0 mean unlimited.
func New(maxBytes int64, maxPages int) *Inspector {
	return &Inspector{maxBytes: maxBytes, maxPages: maxPages}
}

// Inspect returns a *conversion.LimitError when src breaks a limit and
// wraps conversion.ErrSourceNotFound when a local path is missing.
func (i *Inspector) Inspect(ctx context.Context, src conversion.Source) error {
	switch src.Kind {
	case conversion.SourceStream:
		if i.tooLarge(int64(len(src.Data))) {
			return &conversion.LimitError{Message: MsgTooLarge}
		}
		if i.maxPages > 0 && isPDF(src.Ext(), src.Data) {
			return i.checkPages(ctx, bytes.NewReader(src.Data), src.Name())
		}
	case conversion.SourcePath:
		return i.inspectPath(ctx, src)
	}
	return nil
}

func (i *Inspector) inspectPath(ctx context.Context, src conversion.Source) error {
	st, err := os.Stat(src.Location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", src.Location, conversion.ErrSourceNotFound)
		}
		return fmt.Errorf("stat %s: %w", src.Location, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory: %w", src.Location, conversion.ErrSourceNotFound)
	}
	if i.tooLarge(st.Size()) {
		return &conversion.LimitError{Message: MsgTooLarge}
	}
	if i.maxPages == 0 {
		return nil
	}

	f, err := os.Open(src.Location)
	if err != nil {
		return fmt.Errorf("open %s: %w", src.Location, err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(f, head)
	if !isPDF(src.Ext(), head[:n]) {
		return nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", src.Location, err)
	}
	return i.checkPages(ctx, f, src.Name())
}

func (i *Inspector) checkPages(ctx context.Context, r io.ReadSeeker, name string) error {
	pdfCtx, err := api.ReadValidateAndOptimize(r, model.NewDefaultConfiguration())
	if err != nil {
		// unreadable PDFs are left to the engine, which reports its own error
		logger.FromContext(ctx).Debug("pdf preflight skipped",
			zap.String("source", name),
			zap.Error(err),
		)
		return nil
	}
	if pdfCtx.PageCount > i.maxPages {
		return &conversion.LimitError{Message: MsgTooManyPage}
	}
	return nil
}

func (i *Inspector) tooLarge(size int64) bool {
	return i.maxBytes > 0 && size > i.maxBytes
}

func isPDF(ext string, head []byte) bool {
	return ext == "pdf" || bytes.HasPrefix(head, pdfMagic)
}
