// Package fmp4 turns fragmented MP4 segments into decode-ready samples.
//
// A Demuxer is fed one init segment and then media segments in arrival order.
// It keeps the per-track configuration found in the init segment and returns,
// for each media segment, the samples of all tracks merged in decode order.
// Sample payloads are sub-slices of the segment buffer passed in.
//
// A Demuxer is not safe for concurrent use; run one per stream.
package fmp4
