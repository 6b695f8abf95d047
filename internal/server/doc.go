// Package server implements the backend REST service: report creation with
// advisory duplicate detection, report listing, location validation, photo
// upload, and the health endpoint the agent probes for reachability.
package server
