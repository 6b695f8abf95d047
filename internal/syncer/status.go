package syncer

import "time"

// NetworkStatus describes the monitor's view of backend reachability.
type NetworkStatus string

const (
	NetworkOnline   NetworkStatus = "online"
	NetworkOffline  NetworkStatus = "offline"
	NetworkChecking NetworkStatus = "checking"
)

// Status is a point-in-time snapshot of the sync manager.
type Status struct {
	Enabled                 bool
	Syncing                 bool
	Network                 NetworkStatus
	LastSyncAt              time.Time
	BackgroundSyncSupported bool
}
