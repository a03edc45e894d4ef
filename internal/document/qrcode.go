package document

import (
	"fmt"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"github.com/a3tai/instruction-pdf/internal/record"
)

const qrTagPixels = 256

// QRContent is the text encoded in the header QR tag.
func QRContent(rec record.Record) string {
	return strings.Join([]string{rec.CarMake, rec.ModuleNo, rec.Revision, rec.ProgramNo}, "|")
}

// NewQRTag renders the QR tag for rec as an embeddable PNG.
func NewQRTag(rec record.Record) (LoadedImage, error) {
	code, err := qr.Encode(QRContent(rec), qr.M, qr.Auto)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("encode qr tag: %w", err)
	}
	code, err = barcode.Scale(code, qrTagPixels, qrTagPixels)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("scale qr tag: %w", err)
	}
	data, err := encodePNG(code)
	if err != nil {
		return LoadedImage{}, err
	}
	return LoadedImage{
		Data:   data,
		Type:   imageTypePNG,
		Format: "qr",
		Width:  qrTagPixels,
		Height: qrTagPixels,
	}, nil
}
