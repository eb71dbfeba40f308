package agent

import (
	"time"

	"github.com/vshulcz/hostpulse/internal/domain"
)

// RateState holds the previous tick's cumulative counters keyed by
// resource identity, plus that tick's timestamp. The zero value means "no
// previous tick".
type RateState struct {
	At     time.Time
	DiskIO map[string]domain.DiskIOStat
	Net    map[string]domain.NetIOStat
}

// DiskRates are the per-second figures derived for one block device.
type DiskRates struct {
	ReadBytesPerSec    float64
	WrittenBytesPerSec float64
}

// NetRates are the per-second figures derived for one network interface.
type NetRates struct {
	RecvBytesPerSec   float64
	SentBytesPerSec   float64
	RecvPacketsPerSec float64
	SentPacketsPerSec float64
	RecvErrorsPerSec  float64
	SentErrorsPerSec  float64
}

// Rates is the full rate output of one tick. Resources absent from the
// previous state have no entry.
type Rates struct {
	Disk map[string]DiskRates
	Net  map[string]NetRates
}

// NextRates derives per-second rates between prev and the current snapshot
// and returns the state for the next tick. It is pure: the returned state
// is always rebuilt from the snapshot, whether or not rates were
// computable. On the first tick (zero-valued prev) the rates are nil so no
// rate series are emitted from a bogus zero baseline.
func NextRates(prev RateState, snap domain.Snapshot) (*Rates, RateState) {
	next := RateState{
		At:     snap.TakenAt,
		DiskIO: make(map[string]domain.DiskIOStat, len(snap.DiskIO)),
		Net:    make(map[string]domain.NetIOStat, len(snap.Net)),
	}
	for _, d := range snap.DiskIO {
		next.DiskIO[d.Device] = d
	}
	for _, n := range snap.Net {
		next.Net[n.Interface] = n
	}

	if prev.At.IsZero() {
		return nil, next
	}

	dt := snap.TakenAt.Sub(prev.At).Seconds()
	rates := &Rates{
		Disk: make(map[string]DiskRates, len(next.DiskIO)),
		Net:  make(map[string]NetRates, len(next.Net)),
	}
	for dev, cur := range next.DiskIO {
		p, ok := prev.DiskIO[dev]
		if !ok {
			continue
		}
		rates.Disk[dev] = DiskRates{
			ReadBytesPerSec:    rate(cur.ReadBytes, p.ReadBytes, dt),
			WrittenBytesPerSec: rate(cur.WrittenBytes, p.WrittenBytes, dt),
		}
	}
	for iface, cur := range next.Net {
		p, ok := prev.Net[iface]
		if !ok {
			continue
		}
		rates.Net[iface] = NetRates{
			RecvBytesPerSec:   rate(cur.BytesRecv, p.BytesRecv, dt),
			SentBytesPerSec:   rate(cur.BytesSent, p.BytesSent, dt),
			RecvPacketsPerSec: rate(cur.PacketsRecv, p.PacketsRecv, dt),
			SentPacketsPerSec: rate(cur.PacketsSent, p.PacketsSent, dt),
			RecvErrorsPerSec:  rate(cur.ErrorsIn, p.ErrorsIn, dt),
			SentErrorsPerSec:  rate(cur.ErrorsOut, p.ErrorsOut, dt),
		}
	}
	return rates, next
}

// rate clamps to zero on a non-advancing clock or a counter reset, so a
// negative delta never produces a negative rate.
func rate(c, p uint64, dt float64) float64 {
	if dt <= 0 || c < p {
		return 0
	}
	return float64(c-p) / dt
}
