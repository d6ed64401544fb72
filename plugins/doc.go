// Package plugins hosts plugin implementations. Plugins extend the service
// through core.Plugin and must not reach into storage or blob backends.
package plugins
