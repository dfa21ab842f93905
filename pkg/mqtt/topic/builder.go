package topic

import (
	"fmt"
	"strings"
)

// Topic segments published by the collector. Subscribers depend on them.
const (
	// SuffixReadings carries every accepted reading.
	// Structure: {root}/readings/{plantName}
	SuffixReadings = "readings"

	// SuffixStatus carries the collector's online/offline state (retained, also the last will).
	// Structure: {root}/status/{collectorID}
	SuffixStatus = "status"

	// Wildcard is the single-level wildcard "+".
	Wildcard = "+"
)

// Builder constructs topic strings under a fixed root namespace.
type Builder struct {
	// root is the base namespace for all topics (e.g. "leaf/v1").
	root string
}

// NewBuilder creates a Builder for the given root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimRight(root, "/")}
}

// Readings returns the topic a plant's readings are published on.
func (b *Builder) Readings(plantName string) string {
	return b.build(SuffixReadings, sanitize(plantName))
}

// ReadingsWildcard returns the filter matching readings of every plant.
func (b *Builder) ReadingsWildcard() string {
	return b.build(SuffixReadings, Wildcard)
}

// Status returns the collector status topic.
func (b *Builder) Status(collectorID string) string {
	return b.build(SuffixStatus, sanitize(collectorID))
}

// build joins {root}/{suffix}/{identifier}.
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}

// sanitize keeps user-provided names from injecting levels or wildcards.
func sanitize(id string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(id)
}
