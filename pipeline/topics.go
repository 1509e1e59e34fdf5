package pipeline

import (
	"fmt"
	"strings"
)

// BuildTopic composes a tenant-scoped topic name: {env}.{tenant}.{service}.{eventName}.
func BuildTopic(env, tenant, service, eventName string) string {
	return strings.Join([]string{env, tenant, service, eventName}, ".")
}

// ParseTenant extracts the {tenant} segment from a topic built by BuildTopic.
func ParseTenant(topic string) (string, error) {
	parts := strings.Split(topic, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("pipeline: topic %q does not have a tenant segment", topic)
	}
	return parts[1], nil
}

// suffixKey strips any leading "prefix:" segment from key, returning the
// remainder unchanged if key carries no such segment.
func suffixKey(key string) string {
	idx := strings.IndexByte(key, ':')
	if idx < 0 {
		return key
	}
	return key[idx+1:]
}
