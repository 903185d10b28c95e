// internal/game/roles.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/quest/internal/models"
)

// RoleSet is the outcome of the role table for one game.
type RoleSet struct {
	// Selected holds exactly one role per player, unshuffled.
	Selected []models.Role
	// All is the catalogue of distinct roles that could appear at this count.
	All []models.Role
	// UnusedGoodRole is set for 4 and 5 players only.
	UnusedGoodRole models.Role
}

var smallGameGoodRoles = []models.Role{models.RoleCleric, models.RoleYouth, models.RoleLoyalServant}

// RolesForPlayerCount picks the roles for a game. The random source decides
// the two good roles of small games and the special role of larger ones.
func RolesForPlayerCount(playerCount int, rnd *rand.Rand) (RoleSet, error) {
	switch playerCount {
	case 4, 5:
		goods := append([]models.Role(nil), smallGameGoodRoles...)
		rnd.Shuffle(len(goods), func(i, j int) { goods[i], goods[j] = goods[j], goods[i] })

		selected := []models.Role{models.RoleMorganLeFey, models.RoleBlindHunter}
		all := []models.Role{models.RoleMorganLeFey, models.RoleBlindHunter}
		if playerCount == 5 {
			selected = append(selected, models.RoleMinionOfMordred)
			all = append(all, models.RoleMinionOfMordred)
		}
		selected = append(selected, goods[0], goods[1])
		all = append(all, smallGameGoodRoles...)
		return RoleSet{Selected: selected, All: all, UnusedGoodRole: goods[2]}, nil

	case 6, 7, 8, 9, 10:
		special := models.RoleYouth
		if rnd.Intn(2) == 1 {
			special = models.RoleTroublemaker
		}

		minions := 1
		switch {
		case playerCount >= 9:
			minions = 3
		case playerCount >= 7:
			minions = 2
		}

		selected := []models.Role{models.RoleMorganLeFey, models.RoleBlindHunter}
		for i := 0; i < minions; i++ {
			selected = append(selected, models.RoleMinionOfMordred)
		}
		selected = append(selected, models.RoleCleric, special)

		all := []models.Role{
			models.RoleMorganLeFey, models.RoleBlindHunter, models.RoleMinionOfMordred,
			models.RoleCleric, models.RoleYouth, models.RoleTroublemaker,
		}
		if playerCount != 9 {
			selected = append(selected, models.RoleDuke)
			all = append(all, models.RoleDuke)
		}
		if playerCount >= 9 {
			selected = append(selected, models.RoleArchduke)
			all = append(all, models.RoleArchduke)
		}
		if playerCount >= 8 {
			selected = append(selected, models.RoleLoyalServant)
			all = append(all, models.RoleLoyalServant)
		}
		return RoleSet{Selected: selected, All: all}, nil

	default:
		return RoleSet{}, fmt.Errorf("%w: %d", ErrUnsupportedPlayerCount, playerCount)
	}
}
