package config

import "time"

// DefaultDatabasePath is the default path for the main application database
const DefaultDatabasePath = "./library.db"

const (
	DefaultReservationHold = 72 * time.Hour
	DefaultLoanPeriod      = 14 * 24 * time.Hour
)
