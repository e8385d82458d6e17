package user

import "github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID      string
	Email       string
	AccountType onboarding.AccountType
	Roles       []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
