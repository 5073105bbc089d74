package fmp4

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBox               = errors.New("missing box")
	ErrInvalidBox               = errors.New("invalid box")
	ErrNoTracksFound            = errors.New("no tracks found")
	ErrUnknownTrack             = errors.New("unknown track")
	ErrDecoderConfigBuildFailed = errors.New("decoder config build failed")
	ErrInvalidData              = errors.New("invalid data")
	ErrNotInitialized           = errors.New("init segment not parsed")
	ErrAlreadyInitialized       = errors.New("init segment already parsed")
)

// platform status codes carried by DecoderConfigBuildError
const (
	StatusInvalidParameter  int32 = -12710
	StatusAllocationFailed  int32 = -12711
	StatusValueNotAvailable int32 = -12718
)

type MissingBoxError struct {
	Name    string
	Context string
}

func (e *MissingBoxError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("missing box %s", e.Name)
	}
	return fmt.Sprintf("missing box %s in %s", e.Name, e.Context)
}

func (e *MissingBoxError) Is(target error) bool {
	return target == ErrMissingBox
}

type InvalidBoxError struct {
	Reason string
	Err    error
}

func (e *InvalidBoxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid box: %s: %v", e.Reason, e.Err)
	}
	return "invalid box: " + e.Reason
}

func (e *InvalidBoxError) Is(target error) bool {
	return target == ErrInvalidBox
}

func (e *InvalidBoxError) Unwrap() error {
	return e.Err
}

type UnknownTrackError struct {
	TrackID uint32
}

func (e *UnknownTrackError) Error() string {
	return fmt.Sprintf("unknown track %d", e.TrackID)
}

func (e *UnknownTrackError) Is(target error) bool {
	return target == ErrUnknownTrack
}

type DecoderConfigBuildError struct {
	TrackID uint32
	Status  int32
	Err     error
}

func (e *DecoderConfigBuildError) Error() string {
	msg := fmt.Sprintf("track %d: decoder config build failed with status %d", e.TrackID, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecoderConfigBuildError) Is(target error) bool {
	return target == ErrDecoderConfigBuildFailed
}

func (e *DecoderConfigBuildError) Unwrap() error {
	return e.Err
}

type InvalidDataError struct {
	Reason string
}

func (e *InvalidDataError) Error() string {
	return "invalid data: " + e.Reason
}

func (e *InvalidDataError) Is(target error) bool {
	return target == ErrInvalidData
}
