package scheduling

import (
	"time"

	"interview-scheduler/internal/model"
)

// ResolveTimezone picks the user's timezone, then the tenant's, then
// fallback, then UTC. Either record may be nil.
func ResolveTimezone(tenant *model.TenantSettings, user *model.UserProfile, fallback string) string {
	if user != nil && user.Timezone != "" {
		return user.Timezone
	}
	if tenant != nil && tenant.Timezone != "" {
		return tenant.Timezone
	}
	if fallback != "" {
		return fallback
	}
	return "UTC"
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, validationf("unknown timezone %q", name)
	}
	return loc, nil
}
