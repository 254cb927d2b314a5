package e2e

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"

	"vaultflow/e2e/steps/common"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)

	// Presentation request cycle
	ctx.Step(`^I create a request for definition "([^"]*)"$`, tc.createRequest)
	ctx.Step(`^I create a request for definition "([^"]*)" with callback "([^"]*)"$`, tc.createRequestWithCallback)
	ctx.Step(`^I save the session id$`, tc.saveSessionID)
	ctx.Step(`^I initiate the request with the extension (installed|missing)$`, tc.initiateRequest)
	ctx.Step(`^the wallet shares a "([^"]*)" presentation with email "([^"]*)" and name "([^"]*)"$`, tc.walletShares)
	ctx.Step(`^the wallet reports error "([^"]*)" with description "([^"]*)"$`, tc.walletReportsError)
	ctx.Step(`^I fetch the request$`, tc.fetchRequest)
	ctx.Step(`^I fetch request "([^"]*)"$`, tc.fetchRequestByID)

	// Webinar and issuance
	ctx.Step(`^I register for webinar (\d+) without a holder$`, tc.registerWithoutHolder)
	ctx.Step(`^I list issuances for holder "([^"]*)"$`, tc.listIssuances)
}

func (tc *TestContext) createRequest(ctx context.Context, definitionID string) error {
	return tc.createRequestWithCallback(ctx, definitionID, tc.CallbackURL)
}

func (tc *TestContext) createRequestWithCallback(_ context.Context, definitionID, callbackURL string) error {
	return tc.POST("/api/requests", map[string]any{
		"definition_id":   definitionID,
		"callback_url":    callbackURL,
		"do_verification": false,
	})
}

func (tc *TestContext) saveSessionID(context.Context) error {
	sessionID, err := tc.GetResponseField("session_id")
	if err != nil {
		return err
	}
	s, ok := sessionID.(string)
	if !ok || s == "" {
		return fmt.Errorf("session_id is not a string: %v", sessionID)
	}
	tc.SessionID = s
	return nil
}

func (tc *TestContext) initiateRequest(_ context.Context, extension string) error {
	return tc.POST("/api/requests/"+tc.SessionID+"/initiate", map[string]any{
		"extension_installed": extension == "installed",
	})
}

func (tc *TestContext) walletShares(_ context.Context, definitionID, email, name string) error {
	token := map[string]any{
		"@context": []any{"https://www.w3.org/2018/credentials/v1"},
		"type":     []string{"VerifiablePresentation"},
		"verifiableCredential": []map[string]any{{
			"type": []string{"VerifiableCredential", "WebinarRegistrationSchema"},
			"credentialSubject": map[string]any{
				"email": email,
				"name":  name,
			},
		}},
	}
	submission := map[string]any{
		"id":            "submission-1",
		"definition_id": definitionID,
		"descriptor_map": []map[string]any{{
			"id":     "webinar_registration_vc",
			"format": "ldp_vc",
			"path":   "$.verifiableCredential[0]",
		}},
	}
	return tc.POST("/api/requests/"+tc.SessionID+"/callback", map[string]any{
		"vp_token":                token,
		"presentation_submission": submission,
	})
}

func (tc *TestContext) walletReportsError(_ context.Context, code, description string) error {
	return tc.POST("/api/requests/"+tc.SessionID+"/callback", map[string]any{
		"error":             code,
		"error_description": description,
	})
}

func (tc *TestContext) fetchRequest(context.Context) error {
	return tc.GET("/api/requests/" + tc.SessionID)
}

func (tc *TestContext) fetchRequestByID(_ context.Context, sessionID string) error {
	return tc.GET("/api/requests/" + url.PathEscape(sessionID))
}

func (tc *TestContext) registerWithoutHolder(_ context.Context, webinarID int) error {
	return tc.POST("/api/webinars/registrations", map[string]any{
		"holderDid": "",
		"webinarId": webinarID,
		"email":     "ada@example.com",
		"name":      "Ada Lovelace",
	})
}

func (tc *TestContext) listIssuances(_ context.Context, holderDID string) error {
	return tc.GET("/api/credentials/issuances?holderDid=" + url.QueryEscape(holderDID))
}
