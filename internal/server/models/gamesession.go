package models

import "time"

// GameSession is the ephemeral correlation record between a client's join
// and the game server's hasJoined check. Created by join, consumed (deleted)
// by the first matching hasJoined; lifetime is minutes. At most one live
// session exists per (ProfileID, ServerID) pair.
type GameSession struct {
	ID           string
	ProfileID    string
	ServerID     string
	SharedSecret string
	IPAddress    string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
