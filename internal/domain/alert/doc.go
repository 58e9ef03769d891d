// Package alert contains the emergency-alert domain logic of the tracker.
//
// It defines the two-state Latch (Armed/Alert) driven by the ALERT and CLEAR
// buttons, and the per-button Debouncer that turns raw level samples into
// edges spaced at least one debounce window apart.
package alert
