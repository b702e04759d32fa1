package preview

import (
	"bytes"
	"image"

	sixel "github.com/mattn/go-sixel"
	"github.com/soniakeys/quant/median"
)

// encodeSixel quantizes img down to the protocol's 256-color budget
// with a median-cut palette before encoding.
func encodeSixel(img image.Image) ([]byte, error) {
	paletted := median.Quantizer(256).Paletted(img)
	var buf bytes.Buffer
	enc := sixel.NewEncoder(&buf)
	if err := enc.Encode(paletted); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
