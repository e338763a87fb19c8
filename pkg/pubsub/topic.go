package pubsub

import "strings"

// Match reports whether the given topic matches the topic filter.
//
// Filters use '/' separated levels, where '+' matches exactly one level and
// a trailing '#' matches any number of remaining levels. Such as
// 'v1/devices/me/rpc/request/+' matches 'v1/devices/me/rpc/request/7'.
func Match(filter string, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, level := range filterLevels {
		if level == "#" {
			// '#' is only valid as the last filter level.
			return i == len(filterLevels)-1
		}
		if i >= len(topicLevels) {
			return false
		}
		if level != "+" && level != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}
