package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/termcap"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

func isImageName(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// buildImage decodes, scales to the pane's pixel box and encodes with
// the detected protocol. Oversized inputs fail fast before decode.
func (p *Pipeline) buildImage(ctx context.Context, entry files.Entry, paneCols, paneRows int) State {
	if entry.Size > p.opts.MaxImageBytes {
		return errorState(errors.New("image is too large to preview"))
	}
	data, err := p.store.ReadBytes(entry.Path, 0)
	if err != nil {
		return errorState(err)
	}
	if err := ctx.Err(); err != nil {
		return errorState(err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errorState(err)
	}
	if cfg.Width > p.opts.MaxImageDim || cfg.Height > p.opts.MaxImageDim {
		return errorState(errors.New("image dimensions exceed the preview limit"))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return errorState(err)
	}
	if err := ctx.Err(); err != nil {
		return errorState(err)
	}

	maxW := uint(paneCols * p.opts.CellWidth)
	maxH := uint(paneRows * p.opts.CellHeight)
	if maxW == 0 || maxH == 0 {
		return errorState(errors.New("preview pane has no visible area"))
	}
	scaled := resize.Thumbnail(maxW, maxH, img, resize.Lanczos3)
	bounds := scaled.Bounds()

	var payload []byte
	switch p.capability {
	case termcap.KittyGraphics:
		payload = encodeKitty(scaled)
	case termcap.Sixel:
		payload, err = encodeSixel(scaled)
		if err != nil {
			return errorState(err)
		}
	default:
		return State{Kind: KindNotApplicable, Reason: "no image protocol"}
	}
	if err := ctx.Err(); err != nil {
		return errorState(err)
	}

	return State{
		Kind:     KindImage,
		Payload:  payload,
		Protocol: p.capability,
		Format:   format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}
}
