// Package domain contains the core business models for the streaming platform.
// These types are independent of any infrastructure concerns (database, HTTP, UI).
package domain

import (
	"time"
)

// EndpointStatus is the lifecycle state of an endpoint.
type EndpointStatus string

const (
	StatusOperational EndpointStatus = "operational"
	StatusDegraded    EndpointStatus = "degraded"
	StatusPending     EndpointStatus = "pending"
	StatusDisabled    EndpointStatus = "disabled"
)

// Valid reports whether s is one of the known endpoint statuses.
func (s EndpointStatus) Valid() bool {
	switch s {
	case StatusOperational, StatusDegraded, StatusPending, StatusDisabled:
		return true
	}
	return false
}

// ShouldStream reports whether an endpoint in this status serves media.
// Only operational and degraded endpoints stream.
func (s EndpointStatus) ShouldStream() bool {
	return s == StatusOperational || s == StatusDegraded
}

// PlayerVariant selects the embed player layout.
type PlayerVariant string

const (
	VariantLarge      PlayerVariant = "large"
	VariantMedium     PlayerVariant = "medium"
	VariantSmall      PlayerVariant = "small"
	VariantBackground PlayerVariant = "background"
)

// DefaultPlayerVariant is used when an endpoint has no (or an unknown) variant.
const DefaultPlayerVariant = VariantMedium

// NormalizePlayerVariant maps unknown values to DefaultPlayerVariant.
func NormalizePlayerVariant(v PlayerVariant) PlayerVariant {
	switch v {
	case VariantLarge, VariantMedium, VariantSmall, VariantBackground:
		return v
	}
	return DefaultPlayerVariant
}

// MediaType is the kind of media a playlist holds.
type MediaType string

const (
	MediaMusic MediaType = "music"
	MediaVideo MediaType = "video"
)

// AssetStatus is the processing state of an uploaded media asset.
type AssetStatus string

const (
	AssetReady      AssetStatus = "ready"
	AssetProcessing AssetStatus = "processing"
	AssetError      AssetStatus = "error"
)

// Endpoint is a slug-addressed embed target that streams one playlist.
type Endpoint struct {
	ID            string
	Name          string
	Slug          string
	Status        EndpointStatus
	PlaylistID    *string
	PlayerVariant PlayerVariant
	Visualizer    VisualizerSettings
	LastSync      *time.Time
	LatencyMs     *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Playlist groups media assets of a single media type.
type Playlist struct {
	ID        string
	Name      string
	Type      MediaType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MediaAsset is a stored media file belonging to a playlist.
type MediaAsset struct {
	ID              string
	PlaylistID      string
	Type            MediaType
	Title           string
	Filename        string
	OriginalName    string
	MimeType        string
	Size            int64
	Status          AssetStatus
	DurationSeconds *float64
	Artist          string
	Album           string
	Genre           string
	Year            int
	ArtworkFilename string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Track is the public, playable projection of a ready media asset.
type Track struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Artist          *string  `json:"artist"`
	Src             string   `json:"src"`
	ArtworkURL      *string  `json:"artworkUrl"`
	MimeType        string   `json:"mimeType,omitempty"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
}

// StreamEndpoint is the public view of an endpoint inside a stream payload.
type StreamEndpoint struct {
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Status        EndpointStatus     `json:"status"`
	LastSync      *time.Time         `json:"lastSync"`
	PlayerVariant PlayerVariant      `json:"playerVariant"`
	Visualizer    VisualizerSettings `json:"visualizer"`
}

// StreamPlaylist is the public view of a playlist inside a stream payload.
type StreamPlaylist struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type MediaType `json:"type"`
}

// StreamPayload is the response of the stream resolution endpoint.
// Tracks is never nil once produced by the resolver.
type StreamPayload struct {
	Endpoint StreamEndpoint  `json:"endpoint"`
	Playlist *StreamPlaylist `json:"playlist"`
	Tracks   []Track         `json:"tracks"`
}

// DisplayLabel returns "title — artist" when an artist is known, otherwise the title.
func (t Track) DisplayLabel() string {
	if t.Artist != nil && *t.Artist != "" {
		return t.Title + " — " + *t.Artist
	}
	return t.Title
}
