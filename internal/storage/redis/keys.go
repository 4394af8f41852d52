package redis

import (
	"fmt"

	"github.com/mcoot/tablesync/internal/model"
)

// Key prefix for all session data
const keyPrefix = "tablesync"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// messageKey returns the Redis key for a Message
func messageKey(id model.MessageID) string {
	return fmt.Sprintf("%s:message:%d", keyPrefix, id)
}

// playerSeqKey returns the counter used to allocate player ids
func playerSeqKey() string {
	return fmt.Sprintf("%s:seq:player", keyPrefix)
}

// messageSeqKey returns the counter used to allocate message ids
func messageSeqKey() string {
	return fmt.Sprintf("%s:seq:message", keyPrefix)
}

// playersIndexKey returns the sorted set of all player ids, scored by id
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// messagesForPlayerIndexKey returns the sorted set of message ids for a
// player, scored by id
func messagesForPlayerIndexKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:idx:messages_for_player:%d", keyPrefix, id)
}
