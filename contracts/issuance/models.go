package issuance

// Offer is the credential offer the holder accepts in the wallet.
type Offer struct {
	CredentialOfferURI string `json:"credentialOfferUri"`
	TxCode             string `json:"txCode,omitempty"`
	ExpiresIn          int    `json:"expiresIn"`
	IssuanceID         string `json:"issuanceId"`
	ClaimURL           string `json:"claimUrl,omitempty"`
}
