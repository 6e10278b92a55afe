// Package domain is an in-process stand-in for the out-of-process domain
// query service. It answers every QueryRouter operation from fixtures
// loaded from YAML, in either envelope shape.
package domain
