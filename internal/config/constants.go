package config

// Default locations for local state and collaborators
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./librium.db"

	// DefaultStorageDir is where the local blob store keeps uploaded files and derived content
	DefaultStorageDir = "./blobs"

	// DefaultParserURL is the parse endpoint of the EPUB parser service
	DefaultParserURL = "http://localhost:8081/parse"
)
