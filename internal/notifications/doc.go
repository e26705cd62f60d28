// Package notifications builds run event messages and pushes them to ntfy.
//
// Message constructors such as RunCompleted and DefinitionFailed format the
// text; New returns the Notifier that delivers them, which is a Discard
// value when no topic is configured.
package notifications
