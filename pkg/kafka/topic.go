package kafka

import "fmt"

// TopicPrefix namespaces every topic this service publishes to.
const TopicPrefix = "bookreview"

// Topic returns "<prefix>.<aggregate>.<action>".
func Topic(aggregate, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, aggregate, action)
}
