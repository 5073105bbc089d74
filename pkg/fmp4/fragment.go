package fmp4

import (
	"fmt"

	"m7s.live/player/pkg/box"
)

// FragmentContext holds the per-traf values samples of a run fall back to.
type FragmentContext struct {
	TrackID               uint32
	BaseDecodeTime        uint64
	DefaultSampleDuration uint32
	DefaultSampleSize     uint32
	DefaultSampleFlags    uint32
	BaseDataOffset        int64
}

func (d *Demuxer) parseSegment(data []byte) (samples []Sample) {
	moofs := box.FindAll(data, box.Root(data), box.TypeMOOF)
	if len(moofs) == 0 {
		d.report(0, &MissingBoxError{Name: "moof", Context: "media segment"})
		return
	}
	for _, moof := range moofs {
		if mfhdBox, ok := box.Find(data, moof, box.TypeMFHD); ok {
			var mfhd box.MovieFragmentHeaderBox
			if _, err := mfhd.Decode(mfhdBox.Content(data)); err == nil {
				d.Debug("moof", "sequence", mfhd.SequenceNumber, "offset", moof.Offset)
			}
		}
		for _, traf := range box.FindAll(data, moof, box.TypeTRAF) {
			samples = d.parseTraf(data, moof, traf, samples)
		}
	}
	return
}

func (d *Demuxer) parseTraf(data []byte, moof, traf box.Box, samples []Sample) []Sample {
	tfhdBox, ok := box.Find(data, traf, box.TypeTFHD)
	if !ok {
		d.stats.DroppedFragments++
		d.report(0, &MissingBoxError{Name: "tfhd", Context: "traf"})
		return samples
	}
	var tfhd box.TrackFragmentHeaderBox
	if _, err := tfhd.Decode(tfhdBox.Content(data)); err != nil {
		d.stats.DroppedFragments++
		d.report(0, &InvalidBoxError{Reason: "tfhd", Err: err})
		return samples
	}
	track, ok := d.trackByID[tfhd.TrackID]
	if !ok {
		d.stats.DroppedFragments++
		d.report(tfhd.TrackID, &UnknownTrackError{TrackID: tfhd.TrackID})
		return samples
	}

	ctx := FragmentContext{
		TrackID:               track.TrackID,
		BaseDataOffset:        int64(moof.Offset),
		DefaultSampleDuration: track.Defaults.Duration,
		DefaultSampleSize:     track.Defaults.Size,
		DefaultSampleFlags:    track.Defaults.Flags,
	}
	// without an explicit offset the base is the enclosing moof, whatever default-base-is-moof says
	if tfhd.HasBaseDataOffset() {
		ctx.BaseDataOffset = int64(tfhd.BaseDataOffset)
	}
	if tfhd.HasDefaultDuration() {
		ctx.DefaultSampleDuration = tfhd.DefaultSampleDuration
	}
	if tfhd.HasDefaultSize() {
		ctx.DefaultSampleSize = tfhd.DefaultSampleSize
	}
	if tfhd.HasDefaultFlags() {
		ctx.DefaultSampleFlags = tfhd.DefaultSampleFlags
	}
	if tfdtBox, ok := box.Find(data, traf, box.TypeTFDT); ok {
		var tfdt box.TrackFragmentBaseMediaDecodeTimeBox
		if _, err := tfdt.Decode(tfdtBox.Content(data)); err != nil {
			d.report(track.TrackID, &InvalidBoxError{Reason: "tfdt", Err: err})
		} else {
			ctx.BaseDecodeTime = tfdt.BaseMediaDecodeTime
		}
	}

	cursor := ctx.BaseDataOffset
	dts := int64(ctx.BaseDecodeTime)
	for _, trunBox := range box.FindAll(data, traf, box.TypeTRUN) {
		var trun box.TrackRunBox
		n, err := trun.Decode(trunBox.Content(data))
		if n == 0 && err != nil {
			d.report(track.TrackID, &InvalidBoxError{Reason: "trun", Err: err})
			continue
		}
		if trun.HasDataOffset() {
			cursor = ctx.BaseDataOffset + int64(trun.DataOffset)
		}
		count := trun.Len()
		if !trun.HasSize() && count > 0 {
			// every sample takes the default size, so the count is bounded by the bytes left
			if ctx.DefaultSampleSize == 0 {
				d.stats.TruncatedRuns++
				d.report(track.TrackID, &InvalidDataError{Reason: fmt.Sprintf("track %d: %d samples without a sample size", track.TrackID, count)})
				continue
			}
			if left := int64(len(data)) - cursor; left >= 0 && int64(count) > left/int64(ctx.DefaultSampleSize)+1 {
				count = int(left/int64(ctx.DefaultSampleSize)) + 1
			}
		}
		for i := 0; i < count; i++ {
			entry := trun.Entry(i)
			duration, size, flags := ctx.DefaultSampleDuration, ctx.DefaultSampleSize, ctx.DefaultSampleFlags
			if trun.HasDuration() {
				duration = entry.SampleDuration
			}
			if trun.HasSize() {
				size = entry.SampleSize
			}
			if trun.HasFlags() {
				flags = entry.SampleFlags
			} else if i == 0 && trun.HasFirstSampleFlags() {
				flags = trun.FirstSampleFlags
			}
			end := cursor + int64(size)
			if cursor < 0 || end > int64(len(data)) {
				d.stats.TruncatedRuns++
				d.report(track.TrackID, &InvalidDataError{Reason: fmt.Sprintf("track %d sample %d: bytes [%d, %d) outside segment of %d", track.TrackID, i, cursor, end, len(data))})
				err = nil
				break
			}
			samples = append(samples, Sample{
				TrackID:   track.TrackID,
				Kind:      track.Kind,
				Data:      data[cursor:end:end],
				Offset:    int(cursor),
				DTS:       dts,
				PTS:       dts + int64(entry.SampleCompositionTimeOffset),
				Duration:  duration,
				Timescale: track.Timescale,
				Keyframe:  box.IsSync(flags),
			})
			cursor = end
			dts += int64(duration)
		}
		if err != nil {
			d.stats.TruncatedRuns++
			d.report(track.TrackID, &InvalidDataError{Reason: fmt.Sprintf("track %d: %v", track.TrackID, err)})
		}
	}
	return samples
}
