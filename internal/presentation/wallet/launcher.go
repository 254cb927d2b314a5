// Package wallet builds the request a browser hands to the Vault wallet.
package wallet

import (
	"encoding/json"
	"fmt"
	"net/url"

	"vaultflow/internal/presentation/models"
	id "vaultflow/pkg/domain"
	dErrors "vaultflow/pkg/domain-errors"
)

// Launch is the outcome of asking the wallet to start a round trip.
type Launch struct {
	// Available is false when the browser reported no compatible extension.
	Available  bool
	RequestURL string
}

// Launcher produces Vault request URLs.
type Launcher struct {
	vaultURL *url.URL
}

type vaultRequest struct {
	PresentationDefinition models.PresentationDefinition `json:"presentationDefinition"`
	CallbackURL            string                        `json:"callbackUrl"`
	State                  string                        `json:"state"`
}

// NewLauncher validates the Vault URL once at startup.
func NewLauncher(vaultURL string) (*Launcher, error) {
	u, err := url.Parse(vaultURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("invalid vault url %q", vaultURL)
	}
	return &Launcher{vaultURL: u}, nil
}

// Launch builds the request URL for one round trip. The session id travels
// as the request state so the callback can be tied back to its cycle.
func (l *Launcher) Launch(def models.PresentationDefinition, callbackURL string, sessionID id.SessionID, extensionInstalled bool) (Launch, error) {
	if !extensionInstalled {
		return Launch{Available: false}, nil
	}
	payload, err := json.Marshal(vaultRequest{
		PresentationDefinition: def,
		CallbackURL:            callbackURL,
		State:                  sessionID.String(),
	})
	if err != nil {
		return Launch{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode wallet request")
	}

	u := *l.vaultURL
	q := u.Query()
	q.Set("request", string(payload))
	u.RawQuery = q.Encode()
	return Launch{Available: true, RequestURL: u.String()}, nil
}
