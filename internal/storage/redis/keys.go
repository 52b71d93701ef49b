package redis

import (
	"fmt"

	"github.com/mcoot/firgame/internal/model"
)

// Key prefix for all firgame data
const keyPrefix = "firgame"

// usersKey returns the LIST holding every user record in insertion order
func usersKey() string {
	return fmt.Sprintf("%s:users", keyPrefix)
}

// userKey returns the key holding the latest record for a user
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// gamesKey returns the LIST holding every game record in insertion order
func gamesKey() string {
	return fmt.Sprintf("%s:games", keyPrefix)
}

// gameKey returns the key for direct game record lookup
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}
