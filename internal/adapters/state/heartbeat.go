package state

import "time"

// Device status values derived at read time.
const (
	DeviceOK    = "ok"
	DeviceError = "error"
)

// RecordHeartbeat refreshes the device's last heartbeat timestamp, creating
// the record on first contact. Records are never deleted; staleness is
// derived, not stored.
func (c *Controller) RecordHeartbeat(deviceID string, ts time.Time) {
	if deviceID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heartbeats[deviceID] = ts
}

// DeviceStatus derives liveness for every configured slot plus any device
// that has ever pinged. A device is ok iff its last heartbeat is younger
// than the timeout; no heartbeat ever recorded is an error. Pure read-time
// computation; this component owns no timers.
func (c *Controller) DeviceStatus(now time.Time) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.deviceSlots)+len(c.heartbeats))
	for _, slot := range c.deviceSlots {
		out[slot] = DeviceError
	}
	for deviceID, last := range c.heartbeats {
		if now.Sub(last) < c.timeout {
			out[deviceID] = DeviceOK
		} else {
			out[deviceID] = DeviceError
		}
	}
	return out
}
