// Package definitions holds the presentation definitions the site can
// request from a wallet. The set is fixed at process start.
package definitions

import (
	"sort"

	"vaultflow/internal/presentation/models"
	dErrors "vaultflow/pkg/domain-errors"
)

const (
	WebinarRegistrationVC = "webinarRegistrationVC"
	MoviePreference       = "moviePreference"
	UserProfile           = "userProfile"
)

// Registry is a read-only lookup of presentation definitions by id.
type Registry struct {
	byID map[string]models.PresentationDefinition
}

// NewRegistry builds a registry from the given definitions. A later
// definition with a duplicate id replaces the earlier one.
func NewRegistry(defs ...models.PresentationDefinition) *Registry {
	byID := make(map[string]models.PresentationDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	return &Registry{byID: byID}
}

// Default returns the registry of every definition the site uses.
func Default() *Registry {
	return NewRegistry(webinarRegistration(), moviePreference(), userProfile())
}

// Get returns the definition with the given id.
func (r *Registry) Get(id string) (models.PresentationDefinition, error) {
	d, ok := r.byID[id]
	if !ok {
		return models.PresentationDefinition{}, dErrors.New(dErrors.CodeNotFound, "unknown presentation definition: "+id)
	}
	return d, nil
}

// List returns all definitions ordered by id.
func (r *Registry) List() []models.PresentationDefinition {
	out := make([]models.PresentationDefinition, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func typeFilter(credentialType string) map[string]any {
	return map[string]any{
		"type":     "array",
		"contains": map[string]any{"type": "string", "pattern": credentialType},
	}
}

func subjectFields(names ...string) []models.Field {
	fields := make([]models.Field, 0, len(names))
	for _, n := range names {
		fields = append(fields, models.Field{Path: []string{"$.credentialSubject." + n}})
	}
	return fields
}

func webinarRegistration() models.PresentationDefinition {
	fields := []models.Field{{Path: []string{"$.type"}, Filter: typeFilter("WebinarRegistrationSchema")}}
	fields = append(fields, subjectFields("email", "name", "webinartitle", "webinardate", "desc")...)
	return models.PresentationDefinition{
		ID:      WebinarRegistrationVC,
		Name:    "Webinar registration",
		Purpose: "Confirm your webinar registration to claim the attendance certificate",
		InputDescriptors: []models.InputDescriptor{{
			ID:          "webinar_registration_vc",
			Name:        "Webinar registration credential",
			Constraints: models.Constraints{LimitDisclosure: "required", Fields: fields},
		}},
	}
}

func moviePreference() models.PresentationDefinition {
	fields := []models.Field{{Path: []string{"$.type"}, Filter: typeFilter("MoviePreference")}}
	fields = append(fields, subjectFields("genre", "language", "rating")...)
	return models.PresentationDefinition{
		ID:      MoviePreference,
		Name:    "Movie preferences",
		Purpose: "Personalise movie search results",
		InputDescriptors: []models.InputDescriptor{{
			ID:          "movie_preference_vc",
			Name:        "Movie preference credential",
			Constraints: models.Constraints{Fields: fields},
		}},
	}
}

func userProfile() models.PresentationDefinition {
	fields := []models.Field{{Path: []string{"$.type"}, Filter: typeFilter("UserProfile")}}
	fields = append(fields, subjectFields(
		"email", "givenName", "familyName", "phoneNumber", "birthdate", "gender", "address",
	)...)
	for i := range fields[2:] {
		// email stays mandatory
		fields[i+2].Optional = true
	}
	return models.PresentationDefinition{
		ID:      UserProfile,
		Name:    "User profile",
		Purpose: "Prefill the webinar registration form",
		InputDescriptors: []models.InputDescriptor{{
			ID:          "user_profile_vc",
			Name:        "User profile credential",
			Constraints: models.Constraints{LimitDisclosure: "required", Fields: fields},
		}},
	}
}
