package config

// DefaultDatabasePath is the default path for the SQLite database.
const DefaultDatabasePath = "./data/library.db"
