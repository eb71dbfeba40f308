package remotewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"github.com/prometheus/common/model"
	"github.com/prometheus/prometheus/prompb"

	"github.com/vshulcz/hostpulse/internal/domain"
)

// encodeWriteRequest turns one tick's samples into a snappy-compressed
// remote-write protobuf payload. It is deterministic: series keep the
// input order and label sets are sorted by name, so the same sample list
// always yields byte-identical output. Duplicate label names within a
// sample or duplicate label sets across samples are structural errors.
func encodeWriteRequest(samples []domain.Sample) ([]byte, error) {
	if len(samples) == 0 {
		return nil, domain.ErrNoSamples
	}

	req := prompb.WriteRequest{
		Timeseries: make([]prompb.TimeSeries, 0, len(samples)),
	}
	seen := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		labels, err := encodeLabels(s)
		if err != nil {
			return nil, err
		}
		key := seriesKey(labels)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateSeries, s.Name)
		}
		seen[key] = struct{}{}

		req.Timeseries = append(req.Timeseries, prompb.TimeSeries{
			Labels: labels,
			Samples: []prompb.Sample{{
				Value:     s.Value,
				Timestamp: s.Timestamp.UnixMilli(),
			}},
		})
	}

	raw, err := req.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal write request: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// encodeLabels builds the sample's full label set: the reserved metric
// name label plus its own labels, sorted by name as the backend requires.
func encodeLabels(s domain.Sample) ([]prompb.Label, error) {
	out := make([]prompb.Label, 0, len(s.Labels)+1)
	out = append(out, prompb.Label{Name: model.MetricNameLabel, Value: s.Name})
	for _, l := range s.Labels {
		out = append(out, prompb.Label{Name: l.Name, Value: l.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	for i := 1; i < len(out); i++ {
		if out[i].Name == out[i-1].Name {
			return nil, fmt.Errorf("%w: %s in %s", domain.ErrDuplicateLabel, out[i].Name, s.Name)
		}
	}
	return out, nil
}

func seriesKey(labels []prompb.Label) string {
	var sb strings.Builder
	for _, l := range labels {
		sb.WriteString(l.Name)
		sb.WriteByte(0xfe)
		sb.WriteString(l.Value)
		sb.WriteByte(0xff)
	}
	return sb.String()
}
