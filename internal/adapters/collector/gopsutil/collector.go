// Package gopsutil implements the host snapshot source on top of the
// gopsutil library. Each resource family is read independently: a failed
// reading is logged and leaves that section of the snapshot empty, it never
// fails the snapshot as a whole.
package gopsutil

import (
	"context"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/vshulcz/hostpulse/internal/domain"
	"github.com/vshulcz/hostpulse/internal/ports"
)

// Collector reads one full host snapshot per call.
type Collector struct {
	logger *zap.Logger
}

var _ ports.SnapshotSource = (*Collector)(nil)

func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

// Collect reads every resource family once and stamps the snapshot with a
// single timestamp taken before the first reading.
func (c *Collector) Collect(ctx context.Context) domain.Snapshot {
	snap := domain.Snapshot{TakenAt: time.Now()}

	c.collectCPU(ctx, &snap)
	c.collectMemory(ctx, &snap)
	c.collectDisks(ctx, &snap)
	c.collectDiskIO(ctx, &snap)
	c.collectNet(ctx, &snap)
	c.collectSensors(ctx, &snap)
	c.collectLoad(ctx, &snap)
	c.collectHostInfo(ctx, &snap)

	return snap
}

func (c *Collector) collectCPU(ctx context.Context, snap *domain.Snapshot) {
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		c.logger.Debug("cpu percent unavailable", zap.Error(err))
	} else {
		snap.CPUPercent = perCore
	}

	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(total) == 0 {
		c.logger.Debug("aggregate cpu percent unavailable", zap.Error(err))
		return
	}
	snap.CPUPercentTotal = total[0]
	snap.HasCPUTotal = true
}

func (c *Collector) collectMemory(ctx context.Context, snap *domain.Snapshot) {
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		snap.Memory = domain.MemoryStat{
			Total:     vm.Total,
			Used:      vm.Used,
			Available: vm.Available,
			Present:   true,
		}
	} else {
		c.logger.Debug("virtual memory unavailable", zap.Error(err))
	}

	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil && sw != nil {
		snap.Swap = domain.SwapStat{Total: sw.Total, Used: sw.Used, Present: true}
	} else {
		c.logger.Debug("swap memory unavailable", zap.Error(err))
	}
}

func (c *Collector) collectDisks(ctx context.Context, snap *domain.Snapshot) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		c.logger.Debug("disk partitions unavailable", zap.Error(err))
		return
	}
	for _, p := range parts {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage == nil {
			c.logger.Debug("disk usage unavailable",
				zap.String("mount_point", p.Mountpoint), zap.Error(err))
			continue
		}
		snap.Disks = append(snap.Disks, domain.DiskStat{
			MountPoint: p.Mountpoint,
			Device:     p.Device,
			FSType:     p.Fstype,
			Total:      usage.Total,
			Available:  usage.Free,
			Removable:  slices.Contains(p.Opts, "removable"),
		})
	}
}

func (c *Collector) collectDiskIO(ctx context.Context, snap *domain.Snapshot) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		c.logger.Debug("disk io counters unavailable", zap.Error(err))
		return
	}
	for name, io := range counters {
		snap.DiskIO = append(snap.DiskIO, domain.DiskIOStat{
			Device:       name,
			ReadBytes:    io.ReadBytes,
			WrittenBytes: io.WriteBytes,
		})
	}
}

func (c *Collector) collectNet(ctx context.Context, snap *domain.Snapshot) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		c.logger.Debug("net io counters unavailable", zap.Error(err))
		return
	}
	for _, io := range counters {
		snap.Net = append(snap.Net, domain.NetIOStat{
			Interface:   io.Name,
			BytesRecv:   io.BytesRecv,
			BytesSent:   io.BytesSent,
			PacketsRecv: io.PacketsRecv,
			PacketsSent: io.PacketsSent,
			ErrorsIn:    io.Errin,
			ErrorsOut:   io.Errout,
		})
	}
}

func (c *Collector) collectSensors(ctx context.Context, snap *domain.Snapshot) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		c.logger.Debug("temperature sensors unavailable", zap.Error(err))
		return
	}
	for _, t := range temps {
		if t.SensorKey == "" {
			continue
		}
		snap.Sensors = append(snap.Sensors, domain.SensorStat{
			Sensor:      t.SensorKey,
			Temperature: t.Temperature,
			Critical:    t.Critical,
			HasCritical: t.Critical > 0,
		})
	}
}

func (c *Collector) collectLoad(ctx context.Context, snap *domain.Snapshot) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil || avg == nil {
		c.logger.Debug("load averages unavailable", zap.Error(err))
		return
	}
	snap.Load1 = avg.Load1
	snap.Load5 = avg.Load5
	snap.Load15 = avg.Load15
	snap.HasLoad = true
}

func (c *Collector) collectHostInfo(ctx context.Context, snap *domain.Snapshot) {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil {
		c.logger.Debug("host info unavailable", zap.Error(err))
		return
	}
	snap.HasHostInfo = true
	snap.UptimeSeconds = info.Uptime
	snap.BootTimeSeconds = info.BootTime
	snap.Hostname = info.Hostname
	snap.OSName = info.Platform
	snap.OSVersion = info.PlatformVersion
	snap.KernelVersion = info.KernelVersion
	snap.Arch = info.KernelArch
}
