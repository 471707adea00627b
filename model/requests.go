package model

// CreateLinkRequest represents a short-link creation request.
type CreateLinkRequest struct {
	Destination string   `json:"destinationUrl"`
	Slug        string   `json:"slugName"` // optional; generated when blank
	Tags        []string `json:"tags"`
	Protected   bool     `json:"protected"`
	Password    string   `json:"password"`
}

// UpdateLinkRequest represents a partial update of a short link. Pointer
// fields distinguish "not supplied" from zero values.
type UpdateLinkRequest struct {
	Destination *string   `json:"destinationUrl"`
	Slug        *string   `json:"slugName"`
	Tags        *[]string `json:"tags"`
	Active      *bool     `json:"isActive"`
	Protected   *bool     `json:"protected"`
	Password    *string   `json:"password"`
}

// VerifyPasswordRequest is the body of POST /protected-url.
type VerifyPasswordRequest struct {
	Slug     string `json:"slug"`
	Password string `json:"password"`
}

// MatchedURLsRequest filters links by a set of tags.
type MatchedURLsRequest struct {
	TagsList []string `json:"tagsList"`
}

// SaveQRCodeRequest stores a rendered QR code for later retrieval.
type SaveQRCodeRequest struct {
	QRUrl       string `json:"qrUrl"`
	Destination string `json:"destinationUrl"`
}

// AddDomainRequest registers a custom domain for CNAME verification.
type AddDomainRequest struct {
	DomainName string `json:"domainName"`
}

// CreateTokenRequest registers a named API token on the user record.
type CreateTokenRequest struct {
	TokenName string `json:"tokenName"`
}
