package kafka

import "fmt"

// TopicPrefix is the standard prefix for all storefront Kafka topics.
const TopicPrefix = "storefront"

// Topic constructs a fully-qualified topic name.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
