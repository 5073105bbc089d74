package fmp4

import (
	"bytes"
	"fmt"

	"m7s.live/player/pkg/box"
	"m7s.live/player/pkg/codec"
)

func (d *Demuxer) parseInit(data []byte, hdrOverride bool) (tracks []*TrackDescriptor, err error) {
	root := box.Root(data)
	if ftyp, ok := box.Find(data, root, box.TypeFTYP); ok {
		var brands box.FileTypeBox
		if _, err := brands.Decode(ftyp.Content(data)); err == nil {
			d.brands = &brands
			d.Debug("ftyp", "major", brands.MajorBrand.String(), "compatible", len(brands.CompatibleBrands))
		}
	}
	moov, ok := box.Find(data, root, box.TypeMOOV)
	if !ok {
		return nil, &MissingBoxError{Name: "moov", Context: "init segment"}
	}
	defaults := d.parseTrackExtends(data, moov)
	for _, trak := range box.FindAll(data, moov, box.TypeTRAK) {
		track, err := d.parseTrak(data, trak, hdrOverride)
		if err != nil {
			d.report(track.id(), err)
			continue
		}
		if track == nil {
			continue
		}
		if dup := findTrack(tracks, track.TrackID); dup != nil {
			d.report(track.TrackID, &InvalidBoxError{Reason: fmt.Sprintf("duplicate track id %d", track.TrackID)})
			continue
		}
		if trex, ok := defaults[track.TrackID]; ok {
			track.Defaults = trex
		}
		tracks = append(tracks, track)
		d.diag.Report(Event{Kind: EventCodec, TrackID: track.TrackID, Codec: track.Config.CodecTag, Info: track.info()})
		d.Info("track", "trackId", track.TrackID, "kind", track.Kind.String(), "fourcc", track.Config.CodecTag.String(), "timescale", track.Timescale)
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracksFound
	}
	return tracks, nil
}

func (t *TrackDescriptor) id() uint32 {
	if t == nil {
		return 0
	}
	return t.TrackID
}

func (t *TrackDescriptor) info() string {
	if t.Config.Codec != nil {
		return t.Config.Codec.GetInfo()
	}
	return fmt.Sprintf("resolution: %dx%d", t.Width, t.Height)
}

func findTrack(tracks []*TrackDescriptor, trackID uint32) *TrackDescriptor {
	for _, track := range tracks {
		if track.TrackID == trackID {
			return track
		}
	}
	return nil
}

func (d *Demuxer) parseTrackExtends(data []byte, moov box.Box) map[uint32]TrackDefaults {
	mvex, ok := box.Find(data, moov, box.TypeMVEX)
	if !ok {
		return nil
	}
	defaults := make(map[uint32]TrackDefaults)
	for _, b := range box.FindAll(data, mvex, box.TypeTREX) {
		var trex box.TrackExtendsBox
		if _, err := trex.Decode(b.Content(data)); err != nil {
			d.report(0, &InvalidBoxError{Reason: "trex", Err: err})
			continue
		}
		defaults[trex.TrackID] = TrackDefaults{
			SampleDescriptionIndex: trex.DefaultSampleDescriptionIndex,
			Duration:               trex.DefaultSampleDuration,
			Size:                   trex.DefaultSampleSize,
			Flags:                  trex.DefaultSampleFlags,
		}
	}
	return defaults
}

// parseTrak returns a nil track and nil error for tracks that are neither video nor audio.
// On error the returned track, when not nil, carries the id for reporting.
func (d *Demuxer) parseTrak(data []byte, trak box.Box, hdrOverride bool) (*TrackDescriptor, error) {
	tkhdBox, ok := box.Find(data, trak, box.TypeTKHD)
	if !ok {
		return nil, &MissingBoxError{Name: "tkhd", Context: "trak"}
	}
	var tkhd box.TrackHeaderBox
	if _, err := tkhd.Decode(tkhdBox.Content(data)); err != nil {
		return nil, &InvalidBoxError{Reason: "tkhd", Err: err}
	}
	track := &TrackDescriptor{
		TrackID: tkhd.TrackID,
		Width:   tkhd.PixelWidth(),
		Height:  tkhd.PixelHeight(),
	}
	mdia, ok := box.Find(data, trak, box.TypeMDIA)
	if !ok {
		return track, &MissingBoxError{Name: "mdia", Context: "trak"}
	}
	mdhdBox, ok := box.Find(data, mdia, box.TypeMDHD)
	if !ok {
		return track, &MissingBoxError{Name: "mdhd", Context: "mdia"}
	}
	var mdhd box.MediaHeaderBox
	if _, err := mdhd.Decode(mdhdBox.Content(data)); err != nil {
		return track, &InvalidBoxError{Reason: "mdhd", Err: err}
	}
	if mdhd.Timescale == 0 {
		return track, &InvalidBoxError{Reason: "mdhd timescale is 0"}
	}
	track.Timescale = mdhd.Timescale
	hdlrBox, ok := box.Find(data, mdia, box.TypeHDLR)
	if !ok {
		return track, &MissingBoxError{Name: "hdlr", Context: "mdia"}
	}
	var hdlr box.HandlerBox
	if _, err := hdlr.Decode(hdlrBox.Content(data)); err != nil {
		return track, &InvalidBoxError{Reason: "hdlr", Err: err}
	}
	switch hdlr.HandlerType {
	case box.TypeVIDE:
		track.Kind = KindVideo
	case box.TypeSOUN:
		track.Kind = KindAudio
	default:
		d.Debug("track skipped", "trackId", track.TrackID, "handler", hdlr.HandlerType.String())
		return nil, nil
	}
	stsd, ok := box.FindPath(data, mdia, box.TypeMINF, box.TypeSTBL, box.TypeSTSD)
	if !ok {
		return track, &MissingBoxError{Name: "stsd", Context: "stbl"}
	}
	entries, err := box.SampleEntries(data, stsd)
	if err != nil {
		return track, &InvalidBoxError{Reason: "stsd", Err: err}
	}
	if len(entries) == 0 {
		return track, &MissingBoxError{Name: "sample entry", Context: "stsd"}
	}
	if track.Kind == KindVideo {
		err = d.parseVideoEntry(data, entries[0], track, hdrOverride)
	} else {
		err = d.parseAudioEntry(data, entries[0], track)
	}
	return track, err
}

func (d *Demuxer) parseVideoEntry(data []byte, b box.Box, track *TrackDescriptor, hdrOverride bool) error {
	tag := codec.FourCC(b.Type)
	if !tag.IsHEVC() {
		return &InvalidBoxError{Reason: fmt.Sprintf("unsupported video codec %s", tag)}
	}
	entry := box.VisualSampleEntry{Format: b.Type}
	if _, err := entry.Decode(b.Content(data)); err != nil {
		return &InvalidBoxError{Reason: tag.String(), Err: err}
	}
	if track.Width == 0 || track.Height == 0 {
		track.Width, track.Height = int(entry.Width), int(entry.Height)
	}
	var hvcC, colr *box.Box
	for _, child := range entry.Children(data, b) {
		switch child.Type {
		case box.TypeHVCC:
			hvcC = &child
		case box.TypeCOLR:
			colr = &child
		}
	}
	if hvcC == nil {
		return &MissingBoxError{Name: "hvcC", Context: tag.String()}
	}
	track.Config = DecoderConfig{
		CodecTag:    tag,
		OriginalTag: tag,
		Payload:     bytes.Clone(hvcC.Content(data)),
	}
	if hdrOverride {
		track.Config.CodecTag, _ = codec.HDRCodecTag(tag)
		color := codec.HDR10Color
		track.Config.Color = &color
	} else if colr != nil {
		var info box.ColourInformationBox
		if _, err := info.Decode(colr.Content(data)); err != nil {
			d.report(track.TrackID, &InvalidBoxError{Reason: "colr", Err: err})
		} else if info.HasNCLX() {
			track.Config.Color = &codec.ColorInfo{
				Primaries: info.ColourPrimaries,
				Transfer:  info.TransferCharacteristics,
				Matrix:    info.MatrixCoefficients,
				FullRange: info.FullRange,
			}
		}
	}
	if ctx, err := codec.InspectHEVCRecord(track.Config.CodecTag, track.Config.Payload); err != nil {
		d.Debug("hvcC not inspected", "trackId", track.TrackID, "err", err)
	} else {
		track.Config.Codec = ctx
		d.Debug("hvcC", "trackId", track.TrackID, "fourcc", ctx.FourCC().String(), "info", ctx.GetInfo())
		d.diag.Report(Event{Kind: EventResolution, TrackID: track.TrackID, Width: ctx.Width(), Height: ctx.Height()})
	}
	return nil
}

func (d *Demuxer) parseAudioEntry(data []byte, b box.Box, track *TrackDescriptor) error {
	tag := codec.FourCC(b.Type)
	entry := box.AudioSampleEntry{Format: b.Type}
	if _, err := entry.Decode(b.Content(data)); err != nil {
		return &InvalidBoxError{Reason: tag.String(), Err: err}
	}
	variant := codec.LookupAudioVariant(tag)
	declared := int(entry.ChannelCount)
	generic := func() {
		audio := variant.Generic(tag, int(entry.SampleRate), declared, int(entry.SampleSize))
		track.Config = DecoderConfig{CodecTag: tag, OriginalTag: tag, Audio: audio, Codec: audio}
		track.SampleRate, track.ChannelCount = int(entry.SampleRate), declared
	}
	if variant.Codec == codec.AudioCodecUnknown {
		d.Debug("generic audio description", "trackId", track.TrackID, "fourcc", tag.String())
		generic()
		return nil
	}
	configBox, ok := entry.FindChild(data, b, box.Type(variant.ConfigBox))
	if !ok {
		d.report(track.TrackID, &MissingBoxError{Name: box.Type(variant.ConfigBox).String(), Context: tag.String()})
		generic()
		return nil
	}
	payload := configBox.Content(data)
	if variant.Codec == codec.AudioCodecAAC {
		var esds box.ESDescriptorBox
		if _, err := esds.Decode(payload); err != nil || len(esds.DecoderSpecificInfo) == 0 {
			d.report(track.TrackID, &InvalidBoxError{Reason: "esds without DecoderSpecificInfo", Err: err})
			generic()
			return nil
		}
		payload = esds.DecoderSpecificInfo
	}
	audio, err := variant.Build(tag, bytes.Clone(payload))
	if err != nil {
		d.report(track.TrackID, &InvalidBoxError{Reason: "audio config", Err: err})
		generic()
		return nil
	}
	if declared != 0 && declared != audio.Channels {
		d.stats.ChannelMismatches++
		d.Warn("channel count mismatch", "trackId", track.TrackID, "declared", declared, "decoded", audio.Channels)
		d.diag.Report(Event{Kind: EventChannelMismatch, TrackID: track.TrackID, Declared: declared, Decoded: audio.Channels})
	}
	track.Config = DecoderConfig{CodecTag: tag, OriginalTag: tag, Payload: audio.Record, Audio: audio, Codec: audio}
	track.SampleRate, track.ChannelCount = audio.SampleRate, audio.Channels
	return nil
}
