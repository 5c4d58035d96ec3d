package store

// KeyAttribute is the name of the table's partition key attribute.
const KeyAttribute = "user"

// Config holds configuration for the Store.
type Config struct {
	// TableName is the DynamoDB table holding the records.
	// Default: "tddproject-dev"
	TableName string
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TableName: "tddproject-dev",
	}
}

// validate fills in defaults for empty values.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "tddproject-dev"
	}
}
