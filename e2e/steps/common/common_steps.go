package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario state the shared steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	ResponseContains(field string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers request and assertion steps shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^vaultflow is running$`, steps.vaultflowIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)" with empty body$`, steps.postWithEmptyBody)

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should contain "([^"]*)"$`, steps.responseFieldShouldContain)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) vaultflowIsRunning(context.Context) error {
	if err := s.tc.GET("/health/live"); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("liveness probe returned %d", status)
	}
	return nil
}

func (s *commonSteps) get(_ context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) postWithEmptyBody(_ context.Context, path string) error {
	return s.tc.POST(path, map[string]any{})
}

func (s *commonSteps) responseStatusShouldBe(_ context.Context, expected int) error {
	if actual := s.tc.GetLastResponseStatus(); actual != expected {
		return fmt.Errorf("expected status %d but got %d", expected, actual)
	}
	return nil
}

func (s *commonSteps) responseShouldContain(_ context.Context, field string) error {
	if !s.tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain %s\nResponse: %s", field, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(_ context.Context, field, expected string) error {
	actual, err := s.field(field)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("field %s: expected %s but got %s", field, expected, actual)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldContain(_ context.Context, field, substring string) error {
	actual, err := s.field(field)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, substring) {
		return fmt.Errorf("field %s: expected to contain %s but got %s", field, substring, actual)
	}
	return nil
}

// field resolves a dotted path such as "data.email" in the last response.
func (s *commonSteps) field(path string) (string, error) {
	var data any
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &data); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	for _, key := range strings.Split(path, ".") {
		obj, ok := data.(map[string]any)
		if !ok {
			return "", fmt.Errorf("field %s not found in response", path)
		}
		if data, ok = obj[key]; !ok {
			return "", fmt.Errorf("field %s not found in response", path)
		}
	}
	return fmt.Sprint(data), nil
}
