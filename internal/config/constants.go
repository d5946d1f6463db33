package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./card-catalog.db"

	// DefaultOutputDir is where scrape artifacts are written
	DefaultOutputDir = "./output"
)
