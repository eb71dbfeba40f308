package agent

import (
	"sort"
	"strconv"
	"time"

	"github.com/vshulcz/hostpulse/internal/domain"
)

// Metric catalogue. These names and label sets are a schema contract with
// the backend's dashboards: renaming or relabeling breaks queries.
const (
	MCPUUsagePercent = "system_cpu_usage_percent"

	MLoad1  = "system_load1"
	MLoad5  = "system_load5"
	MLoad15 = "system_load15"

	MMemoryTotalBytes     = "system_memory_total_bytes"
	MMemoryUsedBytes      = "system_memory_used_bytes"
	MMemoryAvailableBytes = "system_memory_available_bytes"
	MMemoryUsageRatio     = "system_memory_usage_ratio"

	MSwapTotalBytes = "system_swap_total_bytes"
	MSwapUsedBytes  = "system_swap_used_bytes"
	MSwapUsageRatio = "system_swap_usage_ratio"

	MDiskTotalBytes     = "system_disk_total_bytes"
	MDiskAvailableBytes = "system_disk_available_bytes"
	MDiskUsageRatio     = "system_disk_usage_ratio"

	MDiskReadBytesTotal     = "system_disk_read_bytes_total"
	MDiskWrittenBytesTotal  = "system_disk_written_bytes_total"
	MDiskReadBytesPerSec    = "system_disk_read_bytes_per_second"
	MDiskWrittenBytesPerSec = "system_disk_written_bytes_per_second"

	MNetRecvBytesTotal   = "system_network_receive_bytes_total"
	MNetSentBytesTotal   = "system_network_transmit_bytes_total"
	MNetRecvPacketsTotal = "system_network_receive_packets_total"
	MNetSentPacketsTotal = "system_network_transmit_packets_total"
	MNetRecvErrorsTotal  = "system_network_receive_errors_total"
	MNetSentErrorsTotal  = "system_network_transmit_errors_total"

	MNetRecvBytesPerSec   = "system_network_receive_bytes_per_second"
	MNetSentBytesPerSec   = "system_network_transmit_bytes_per_second"
	MNetRecvPacketsPerSec = "system_network_receive_packets_per_second"
	MNetSentPacketsPerSec = "system_network_transmit_packets_per_second"
	MNetRecvErrorsPerSec  = "system_network_receive_errors_per_second"
	MNetSentErrorsPerSec  = "system_network_transmit_errors_per_second"

	MTemperatureCelsius         = "system_temperature_celsius"
	MTemperatureCriticalCelsius = "system_temperature_critical_celsius"

	MUptimeSeconds   = "system_uptime_seconds"
	MBootTimeSeconds = "system_boot_time_seconds"
	MSystemInfo      = "system_info"
)

// Label keys of the catalogue.
const (
	LabelHostname   = "hostname"
	LabelCPU        = "cpu"
	LabelMountPoint = "mount_point"
	LabelDevice     = "device"
	LabelFSType     = "fs_type"
	LabelInterface  = "interface"
	LabelSensor     = "sensor"

	LabelOSName        = "os_name"
	LabelOSVersion     = "os_version"
	LabelKernelVersion = "kernel_version"
	LabelArch          = "arch"

	// cpuTotal is the label value of the aggregate CPU series.
	cpuTotal = "total"
)

// Build turns one snapshot plus the tick's derived rates into the full
// ordered sample set. The order is fixed (catalogue order, resources in
// sorted key order) so identical snapshots always produce the same list.
// Every sample carries the hostname label and the snapshot's timestamp.
func Build(snap domain.Snapshot, rates *Rates) []domain.Sample {
	b := builder{host: snap.Hostname, ts: snap.TakenAt}

	for i, pct := range snap.CPUPercent {
		b.add(MCPUUsagePercent, pct, domain.L(LabelCPU, strconv.Itoa(i)))
	}
	if snap.HasCPUTotal {
		b.add(MCPUUsagePercent, snap.CPUPercentTotal, domain.L(LabelCPU, cpuTotal))
	}

	if snap.HasLoad {
		b.add(MLoad1, snap.Load1)
		b.add(MLoad5, snap.Load5)
		b.add(MLoad15, snap.Load15)
	}

	if snap.Memory.Present {
		b.add(MMemoryTotalBytes, float64(snap.Memory.Total))
		b.add(MMemoryUsedBytes, float64(snap.Memory.Used))
		b.add(MMemoryAvailableBytes, float64(snap.Memory.Available))
		b.add(MMemoryUsageRatio, ratio(snap.Memory.Used, snap.Memory.Total))
	}
	if snap.Swap.Present {
		b.add(MSwapTotalBytes, float64(snap.Swap.Total))
		b.add(MSwapUsedBytes, float64(snap.Swap.Used))
		b.add(MSwapUsageRatio, ratio(snap.Swap.Used, snap.Swap.Total))
	}

	b.disks(snap.Disks)
	b.diskIO(snap.DiskIO, rates)
	b.network(snap.Net, rates)
	b.sensors(snap.Sensors)

	if snap.HasHostInfo {
		b.add(MUptimeSeconds, float64(snap.UptimeSeconds))
		b.add(MBootTimeSeconds, float64(snap.BootTimeSeconds))
	}

	b.add(MSystemInfo, 1,
		domain.L(LabelOSName, snap.OSName),
		domain.L(LabelOSVersion, snap.OSVersion),
		domain.L(LabelKernelVersion, snap.KernelVersion),
		domain.L(LabelArch, snap.Arch),
	)

	return b.out
}

type builder struct {
	host string
	ts   time.Time
	out  []domain.Sample
}

func (b *builder) add(name string, value float64, labels ...domain.Label) {
	ls := make([]domain.Label, 0, len(labels)+1)
	ls = append(ls, domain.L(LabelHostname, b.host))
	ls = append(ls, labels...)
	b.out = append(b.out, domain.Sample{
		Name:      name,
		Labels:    ls,
		Value:     value,
		Timestamp: b.ts,
	})
}

func (b *builder) disks(disks []domain.DiskStat) {
	sorted := make([]domain.DiskStat, len(disks))
	copy(sorted, disks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MountPoint < sorted[j].MountPoint })

	// Bind mounts can surface the same mount point twice; only the first
	// occurrence becomes a series.
	for i, d := range sorted {
		if i > 0 && d.MountPoint == sorted[i-1].MountPoint {
			continue
		}
		ls := []domain.Label{
			domain.L(LabelMountPoint, d.MountPoint),
			domain.L(LabelDevice, d.Device),
			domain.L(LabelFSType, d.FSType),
		}
		var used uint64
		if d.Total >= d.Available {
			used = d.Total - d.Available
		}
		b.add(MDiskTotalBytes, float64(d.Total), ls...)
		b.add(MDiskAvailableBytes, float64(d.Available), ls...)
		b.add(MDiskUsageRatio, ratio(used, d.Total), ls...)
	}
}

func (b *builder) diskIO(io []domain.DiskIOStat, rates *Rates) {
	sorted := make([]domain.DiskIOStat, len(io))
	copy(sorted, io)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Device < sorted[j].Device })

	for _, d := range sorted {
		dev := domain.L(LabelDevice, d.Device)
		b.add(MDiskReadBytesTotal, float64(d.ReadBytes), dev)
		b.add(MDiskWrittenBytesTotal, float64(d.WrittenBytes), dev)
		if rates == nil {
			continue
		}
		r, ok := rates.Disk[d.Device]
		if !ok {
			continue
		}
		b.add(MDiskReadBytesPerSec, r.ReadBytesPerSec, dev)
		b.add(MDiskWrittenBytesPerSec, r.WrittenBytesPerSec, dev)
	}
}

func (b *builder) network(nics []domain.NetIOStat, rates *Rates) {
	sorted := make([]domain.NetIOStat, len(nics))
	copy(sorted, nics)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Interface < sorted[j].Interface })

	for _, n := range sorted {
		iface := domain.L(LabelInterface, n.Interface)
		b.add(MNetRecvBytesTotal, float64(n.BytesRecv), iface)
		b.add(MNetSentBytesTotal, float64(n.BytesSent), iface)
		b.add(MNetRecvPacketsTotal, float64(n.PacketsRecv), iface)
		b.add(MNetSentPacketsTotal, float64(n.PacketsSent), iface)
		b.add(MNetRecvErrorsTotal, float64(n.ErrorsIn), iface)
		b.add(MNetSentErrorsTotal, float64(n.ErrorsOut), iface)
		if rates == nil {
			continue
		}
		r, ok := rates.Net[n.Interface]
		if !ok {
			continue
		}
		b.add(MNetRecvBytesPerSec, r.RecvBytesPerSec, iface)
		b.add(MNetSentBytesPerSec, r.SentBytesPerSec, iface)
		b.add(MNetRecvPacketsPerSec, r.RecvPacketsPerSec, iface)
		b.add(MNetSentPacketsPerSec, r.SentPacketsPerSec, iface)
		b.add(MNetRecvErrorsPerSec, r.RecvErrorsPerSec, iface)
		b.add(MNetSentErrorsPerSec, r.SentErrorsPerSec, iface)
	}
}

func (b *builder) sensors(sensors []domain.SensorStat) {
	sorted := make([]domain.SensorStat, len(sensors))
	copy(sorted, sensors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sensor < sorted[j].Sensor })

	// Some platforms report one sensor key several times.
	for i, s := range sorted {
		if i > 0 && s.Sensor == sorted[i-1].Sensor {
			continue
		}
		sensor := domain.L(LabelSensor, s.Sensor)
		b.add(MTemperatureCelsius, s.Temperature, sensor)
		if s.HasCritical {
			b.add(MTemperatureCriticalCelsius, s.Critical, sensor)
		}
	}
}

// ratio is used/total, defined as 0 for an empty total so a missing
// resource never turns into NaN at the backend.
func ratio(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total)
}
