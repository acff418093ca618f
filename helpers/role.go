package helpers

import (
	"context"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/utils"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Roles lists the roles granted to an account. Admins keep the user
// permissions through the policy, the role itself is enough.
func Roles(ctx context.Context, id uuid.UUID) []string {
	role, err := AccountRole(ctx, id)
	if err != nil {
		zap.S().Errorf("Account role error: %v", err)
		return []string{models.RoleUser}
	}

	return []string{role}
}

func HasPermission(ctx context.Context, id uuid.UUID, p string, m string) bool {
	if !utils.IsValidUuid(id) {
		return false
	}

	return RolesAllowed(Roles(ctx, id), p, m)
}

func RolesAllowed(roles []string, p string, m string) bool {
	if len(roles) < 1 {
		return false
	}

	ps := [][]interface{}{}

	for _, r := range roles {
		ps = append(ps, []interface{}{r, p, m})
	}

	result, err := app.Auth().BatchEnforce(ps)
	if err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Enforce error: %v", err)
		return false
	}

	for _, val := range result {
		if val {
			return true
		}
	}

	return false
}
