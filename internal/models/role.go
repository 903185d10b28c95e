// internal/models/role.go
package models

// Role is a secret character card dealt to a player at game start.
type Role string

const (
	RoleMorganLeFey     Role = "Morgan le Fey"
	RoleMinionOfMordred Role = "Minion of Mordred"
	RoleBlindHunter     Role = "Blind Hunter"
	RoleCleric          Role = "Cleric"
	RoleYouth           Role = "Youth"
	RoleTroublemaker    Role = "Troublemaker"
	RoleLoyalServant    Role = "Loyal Servant of Arthur"
	RoleDuke            Role = "Duke"
	RoleArchduke        Role = "Archduke"
)

var (
	// EvilRoles are the roles whose true allegiance is evil.
	EvilRoles = []Role{RoleMorganLeFey, RoleMinionOfMordred, RoleBlindHunter}

	// KnownEvilRoles learn the evil roster at game start.
	KnownEvilRoles = []Role{RoleMorganLeFey, RoleMinionOfMordred}

	// TokenableEvilRoles must play a pass card while holding the magic token.
	TokenableEvilRoles = []Role{RoleMinionOfMordred, RoleBlindHunter}

	// ShowsAsEvilRoles is the apparent alignment seen by the amulet and the cleric.
	// Troublemaker is good but presents as evil.
	ShowsAsEvilRoles = []Role{RoleMorganLeFey, RoleMinionOfMordred, RoleBlindHunter, RoleTroublemaker}
)

func (r Role) in(set []Role) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsEvil reports the true allegiance of the role.
func (r Role) IsEvil() bool { return r.in(EvilRoles) }

// IsGood is true for every assigned role that is not evil.
func (r Role) IsGood() bool { return r != "" && !r.IsEvil() }

// KnowsEvils reports whether the role receives the evil roster.
func (r Role) KnowsEvils() bool { return r.in(KnownEvilRoles) }

// BoundByToken reports whether holding the magic token forces a pass card.
func (r Role) BoundByToken() bool { return r.in(TokenableEvilRoles) }

// ShowsAsEvil reports the apparent alignment, which differs from IsEvil for Troublemaker.
func (r Role) ShowsAsEvil() bool { return r.in(ShowsAsEvilRoles) }
