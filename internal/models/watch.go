// internal/models/watch.go
package models

import (
	"fmt"
	"strconv"
)

// WatchListing is one catalog entry. Cost is an opaque formattable string and
// is never range-validated. Images order is display order.
type WatchListing struct {
	ID              string     `json:"id,omitempty"`
	Brand           string     `json:"brand"`
	Model           string     `json:"model"`
	ReferenceNo     string     `json:"referenceNo"`
	Cost            string     `json:"cost"`
	Size            string     `json:"size"`
	Movement        string     `json:"movement"`
	Condition       string     `json:"condition"`
	Color           string     `json:"color"`
	Scope           string     `json:"scope"`
	Description     string     `json:"description"`
	Origin          string     `json:"origin"`
	WaterResistance string     `json:"waterResistance"`
	Warranty        string     `json:"warranty"`
	Available       bool       `json:"available"`
	Images          []ImageRef `json:"images"`
}

// NewWatchTemplate is the empty form state for a fresh listing.
func NewWatchTemplate() WatchListing {
	return WatchListing{Available: true, Images: []ImageRef{}}
}

// SetField updates one named field from its form value. No validation beyond
// type coercion is performed here.
func (w *WatchListing) SetField(name, value string) error {
	switch name {
	case "brand":
		w.Brand = value
	case "model":
		w.Model = value
	case "referenceNo":
		w.ReferenceNo = value
	case "cost":
		w.Cost = value
	case "size":
		w.Size = value
	case "movement":
		w.Movement = value
	case "condition":
		w.Condition = value
	case "color":
		w.Color = value
	case "scope":
		w.Scope = value
	case "description":
		w.Description = value
	case "origin":
		w.Origin = value
	case "waterResistance":
		w.WaterResistance = value
	case "warranty":
		w.Warranty = value
	case "available":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("available must be a boolean: %w", err)
		}
		w.Available = v
	default:
		return fmt.Errorf("unknown watch field %q", name)
	}
	return nil
}

// ToRecord serializes the listing into its store shape.
func (w WatchListing) ToRecord() (JSONB, error) {
	return encodeRecord(w)
}

// WatchFromRecord decodes a store record. All images come back committed.
func WatchFromRecord(id string, rec JSONB) (WatchListing, error) {
	var w WatchListing
	if err := decodeRecord(rec, &w); err != nil {
		return WatchListing{}, err
	}
	w.ID = id
	if w.Images == nil {
		w.Images = []ImageRef{}
	}
	return w, nil
}
