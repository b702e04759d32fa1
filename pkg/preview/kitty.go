package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"sync/atomic"
)

// kitty graphics escape frames carry at most 4096 base64 bytes each.
const kittyChunkLen = 4096

var kittyImageID uint32

// encodeKitty frames img as a kitty graphics transmit-and-display
// sequence (a=T, f=32, raw RGBA, base64 in chunked escapes). Each call
// uses a fresh image id so a superseded preview never aliases an
// earlier placement.
func encodeKitty(img image.Image) []byte {
	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	encoded := base64.StdEncoding.EncodeToString(rgba.Pix)
	id := atomic.AddUint32(&kittyImageID, 1)

	var buf bytes.Buffer
	first := true
	for len(encoded) > 0 {
		chunk := encoded
		if len(chunk) > kittyChunkLen {
			chunk = chunk[:kittyChunkLen]
		}
		encoded = encoded[len(chunk):]
		more := 0
		if len(encoded) > 0 {
			more = 1
		}
		if first {
			fmt.Fprintf(&buf, "\x1b_Ga=T,f=32,s=%d,v=%d,i=%d,q=2,m=%d;%s\x1b\\",
				bounds.Dx(), bounds.Dy(), id, more, chunk)
			first = false
		} else {
			fmt.Fprintf(&buf, "\x1b_Gm=%d;%s\x1b\\", more, chunk)
		}
	}
	return buf.Bytes()
}
