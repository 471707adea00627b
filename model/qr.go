package model

import "time"

// QRCode is a stored QR-code record pointing at a destination URL.
type QRCode struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Destination string    `json:"destinationUrl"`
	QRUrl       string    `json:"qrUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
