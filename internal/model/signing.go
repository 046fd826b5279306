package model

// SignerAttributes : атрибуты подписанта для сервиса подписи
type SignerAttributes struct {
	Eppn        string `json:"eppn"`
	DisplayName string `json:"displayName"`
	Email       string `json:"mail"`
}

type PreparedDocument struct {
	DocumentKey           string `json:"key"`
	Name                  string `json:"name"`
	Reference             string `json:"updatedPdfDocumentReference"`
	SignatureRequirements string `json:"visiblePdfSignatureRequirement,omitempty"`
}

type AuthnRequirements struct {
	IdP          string           `json:"authnServiceID"`
	AuthnContext string           `json:"authnContextClassRef"`
	Signer       SignerAttributes `json:"requestedSignerAttributes"`
}

type SignRequest struct {
	SignRequest string `json:"signRequest"`
	RelayState  string `json:"relayState"`
	Binding     string `json:"binding"`
	Destination string `json:"destinationUrl"`
}

type SignedDocument struct {
	DocumentKey   string `json:"id"`
	SignedContent string `json:"signedContent"`
}
