package student

import (
	qrcode "github.com/skip2/go-qrcode"
)

// BadgePNG renders the student's QR badge as a PNG. The badge encodes the
// student's qr_code string, which is exactly what the scanner posts back.
func BadgePNG(s Student, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(s.QRCode, qrcode.Medium, size)
}
