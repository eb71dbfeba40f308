package domain

import "time"

// Snapshot is one instant's full set of raw readings from the host.
// It is built once per tick and discarded after the tick's samples are
// derived; only the cumulative counters survive inside the rate state.
// A section left at its zero value means the source could not read that
// resource this tick.
type Snapshot struct {
	TakenAt time.Time

	CPUPercent      []float64 // one entry per logical core
	CPUPercentTotal float64
	HasCPUTotal     bool

	Memory MemoryStat
	Swap   SwapStat

	Disks   []DiskStat
	DiskIO  []DiskIOStat
	Net     []NetIOStat
	Sensors []SensorStat

	Load1   float64
	Load5   float64
	Load15  float64
	HasLoad bool

	UptimeSeconds   uint64
	BootTimeSeconds uint64
	HasHostInfo     bool

	Hostname      string
	OSName        string
	OSVersion     string
	KernelVersion string
	Arch          string
}

type MemoryStat struct {
	Total     uint64
	Used      uint64
	Available uint64
	Present   bool
}

type SwapStat struct {
	Total   uint64
	Used    uint64
	Present bool
}

// DiskStat describes one mounted filesystem.
type DiskStat struct {
	MountPoint string
	Device     string
	FSType     string
	Total      uint64
	Available  uint64
	Removable  bool
}

// DiskIOStat carries cumulative byte counters for one block device.
type DiskIOStat struct {
	Device       string
	ReadBytes    uint64
	WrittenBytes uint64
}

// NetIOStat carries cumulative counters for one network interface.
type NetIOStat struct {
	Interface   string
	BytesRecv   uint64
	BytesSent   uint64
	PacketsRecv uint64
	PacketsSent uint64
	ErrorsIn    uint64
	ErrorsOut   uint64
}

// SensorStat is one temperature reading; Critical is meaningful only
// when HasCritical is set (not every sensor reports a threshold).
type SensorStat struct {
	Sensor      string
	Temperature float64
	Critical    float64
	HasCritical bool
}
