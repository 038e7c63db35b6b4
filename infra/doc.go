// Package infra contains technical adapters: the plan file source, the MQTT
// publisher, metrics exporters, error monitoring and logging. These packages
// depend only on the interfaces defined in the core packages.
package infra
