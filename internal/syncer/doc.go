// Package syncer decides when the offline submission queue gets drained.
//
// The Manager runs a periodic timer, reacts to network reconnects (via the
// active reachability probe and, when available, passive udev netlink
// interface events), and exposes ForceSync for explicit user action. All
// trigger sources collapse into a single in-flight cycle; a cycle is bounded
// by a wall-clock timeout and failed cycles push the next periodic attempt
// out with exponential backoff.
//
// The network monitor distrusts passive "connected" signals: link-layer
// connectivity does not guarantee API reachability, so online is only
// reported after a successful probe against the backend.
package syncer
